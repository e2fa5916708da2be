package models

// ContactDetails are collected before chat is enabled.
type ContactDetails struct {
	Name    string `json:"name" bson:"name" binding:"max=200"`
	Email   string `json:"email" bson:"email" binding:"required,email"`
	Company string `json:"company" bson:"company" binding:"max=200"`
	Phone   string `json:"phone" bson:"phone" binding:"required,phone"`
	Country string `json:"country" bson:"country" binding:"max=100"`
}
