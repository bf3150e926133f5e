package domain

type Category struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
	MedicineCount int64  `db:"medicine_count" json:"medicine_count"`
	CreatedAt     string `db:"created_at" json:"created_at"`
}
