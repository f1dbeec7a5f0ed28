package domain

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Source{},
		&Thought{},
		&ReviewLog{},
	}
}
