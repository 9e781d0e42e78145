package model

// Deliveryman is a courier in the branch directory.
type Deliveryman struct {
	DeliverymanID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"deliveryman_id"`
	Name          string  `gorm:"type:varchar(120);not null"                     json:"name"`
	Phone         *string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	IsBlocked     bool    `gorm:"not null;default:false"                         json:"is_blocked"`
	BaseModel
}

// TableName sets the table name.
func (Deliveryman) TableName() string { return "deliverymen" }
