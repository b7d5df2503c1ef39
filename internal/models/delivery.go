package models

import (
	"database/sql"
	"time"
)

// Delivery is the order card shown to drivers
type Delivery struct {
	Number         int64           `db:"NUMERO" json:"numero"`
	Date           sql.NullTime    `db:"M_DATA" json:"-"`
	DateTime       sql.NullTime    `db:"M_DATA_HORA" json:"-"`
	ClientName     sql.NullString  `db:"CLIENTE_NOME" json:"-"`
	ClientDocument sql.NullString  `db:"CLIENTE_CNPJ" json:"-"`
	DriverName     sql.NullString  `db:"MOTORISTA_NOME" json:"-"`
	DriverDocument sql.NullString  `db:"MOTORISTA_DOC" json:"-"`
	Plate          sql.NullString  `db:"PLACA" json:"-"`
	TotalValue     sql.NullFloat64 `db:"VALOR_TOTAL" json:"-"`
}

// PlannedDate is the collection date, falling back to nothing
func (d *Delivery) PlannedDate() (time.Time, bool) {
	return d.Date.Time, d.Date.Valid
}

// DeliveryDate prefers the timestamped column
func (d *Delivery) DeliveryDate() (time.Time, bool) {
	if d.DateTime.Valid {
		return d.DateTime.Time, true
	}
	return d.Date.Time, d.Date.Valid
}

// Occurrence identifies an inserted TABMOVTRA_OCO row
type Occurrence struct {
	Nomovtra int64 `db:"NOMOVTRA" json:"nomovtra"`
	Item     int64 `db:"NOITEM" json:"noitem"`
}
