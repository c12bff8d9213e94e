package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("preferences")

		collection.Fields.Add(
			&core.TextField{Name: "user_id", Required: true},
			&core.JSONField{Name: "history", MaxSize: 2000000},
			&core.JSONField{Name: "saved_events", MaxSize: 2000000},
			&core.JSONField{Name: "reminders", MaxSize: 2000000},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_preferences_user", true, "user_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("preferences")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
