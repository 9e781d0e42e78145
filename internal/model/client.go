package model

import "time"

// Client is a delivery site in the directory.
type Client struct {
	ClientID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"client_id"`
	Name         string `gorm:"type:varchar(120);not null"                     json:"name"`
	Street       string `gorm:"type:varchar(120);not null;default:''"          json:"street"`
	Number       string `gorm:"type:varchar(20);not null;default:''"           json:"number"`
	Neighborhood string `gorm:"type:varchar(80);not null;default:''"           json:"neighborhood"`
	IsDeleted    bool   `gorm:"not null;default:false"                         json:"is_deleted"`
	BaseModel
}

// TableName sets the table name.
func (Client) TableName() string { return "clients" }

// Address renders the site address the way invite messages show it.
func (c *Client) Address() string {
	return c.Street + ", " + c.Number + " - " + c.Neighborhood
}

// ClientBlock marks a client↔deliveryman pairing as forbidden.
type ClientBlock struct {
	ClientID      string    `gorm:"type:uuid;primaryKey" json:"client_id"`
	DeliverymanID string    `gorm:"type:uuid;primaryKey" json:"deliveryman_id"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the table name.
func (ClientBlock) TableName() string { return "client_blocks" }
