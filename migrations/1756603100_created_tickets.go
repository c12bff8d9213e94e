package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "user_name"},
			&core.TextField{Name: "qr_code_data"},
			&core.SelectField{Name: "status", Values: []string{"active", "used"}, MaxSelect: 1},
			&core.DateField{Name: "purchase_date"},
			&core.DateField{Name: "redeemed_at"},
			&core.NumberField{Name: "seat_number", Min: types.Pointer(0.0), OnlyInt: true},
			&core.NumberField{Name: "price_paid", Min: types.Pointer(0.0)},
			&core.TextField{Name: "legacy_id"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_tickets_event_user", false, "event_id, user_id", "")
		collection.AddIndex("idx_tickets_user", false, "user_id", "")
		collection.AddIndex("idx_tickets_legacy", false, "legacy_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
