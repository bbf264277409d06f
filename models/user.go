package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleAdmin        = "admin"
	RoleOrganization = "organization"
	RoleVolunteer    = "volunteer"
)

// User is the platform account directory. This subsystem only reads it: to
// resolve a donor's account by email and to fan notifications out to admins.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName  string             `bson:"full_name" json:"full_name"`
	Email     string             `bson:"email" json:"email"`
	Role      string             `bson:"role" json:"role"` // admin, organization, volunteer
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
