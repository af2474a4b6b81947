package entity

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Account{},
		&Profile{},
		&Team{},
		&TeamMember{},
		&Application{},
		&Message{},
		&Note{},
	}
}
