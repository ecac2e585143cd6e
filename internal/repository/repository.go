package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	User UserRepository
	Car  CarRecordRepository
}

func NewRepositories(db *sqlx.DB, fullTextSearch bool) *Repositories {
	return &Repositories{
		User: NewUserRepository(db),
		Car:  NewCarRecordRepository(db, fullTextSearch),
	}
}
