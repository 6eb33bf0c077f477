package model

type StoreLocation struct {
	ID      uint     `gorm:"primarykey" json:"id"`
	Name    string   `gorm:"not null" json:"name"`
	Address string   `gorm:"type:text" json:"address"`
	City    string   `gorm:"index" json:"city"`
	State   string   `gorm:"type:varchar(20)" json:"state"`
	ZipCode string   `gorm:"type:varchar(20)" json:"zip_code"`
	Phone   string   `gorm:"type:varchar(30)" json:"phone"`
	Lat     *float64 `gorm:"type:decimal(10,8)" json:"lat"`
	Lng     *float64 `gorm:"type:decimal(11,8)" json:"lng"`
	Hours   string   `gorm:"type:text" json:"hours"`
}

func (StoreLocation) TableName() string {
	return "store_locations"
}
