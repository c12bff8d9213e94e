package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events")

		collection.Fields.Add(
			&core.TextField{Name: "title", Required: true},
			&core.TextField{Name: "description"},
			&core.TextField{Name: "location"},
			&core.TextField{Name: "category"},
			&core.TextField{Name: "date"},
			&core.TextField{Name: "iso_date"},
			&core.URLField{Name: "image_url"},
			&core.URLField{Name: "source_url"},
			&core.NumberField{Name: "price_value", Min: types.Pointer(0.0)},
			&core.NumberField{Name: "max_seats", Min: types.Pointer(0.0), OnlyInt: true},
			&core.NumberField{Name: "sold_seats", Min: types.Pointer(0.0), OnlyInt: true},
			&core.JSONField{Name: "attendees", MaxSize: 2000000},
			&core.TextField{Name: "creator_id"},
			&core.BoolField{Name: "user_created"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_events_creator", false, "creator_id", "")
		collection.AddIndex("idx_events_iso_date", false, "iso_date", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
