// Package model declares the gorm schema: users and their sessions, the church tree,
// per-user metric definitions and the settings blob.
package model

// All returns the models managed by migrations, parents before children
func All() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&Church{},
		&Metric{},
		&Settings{},
	}
}
