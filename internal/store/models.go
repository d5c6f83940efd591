package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationKind tags the variant of a notification payload.
type NotificationKind string

const (
	KindMessage NotificationKind = "message"
	KindPost    NotificationKind = "post"
	KindUpdate  NotificationKind = "update"
)

// User is an account document. Email is the stable identity key used for
// channel routing and as the foreign key on every other record.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	Age             int                `bson:"age,omitempty" json:"age,omitempty"`
	Gender          string             `bson:"gender,omitempty" json:"gender,omitempty"`
	PasswordHash    string             `bson:"password" json:"-"`
	Type            string             `bson:"type,omitempty" json:"type,omitempty"`
	ProfileImageURL string             `bson:"profileImageUrl" json:"profileImageUrl"`
	Following       []string           `bson:"following" json:"following"`
	Followers       []string           `bson:"followers" json:"followers"`
}

type ChatMessage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderEmail   string             `bson:"senderEmail" json:"senderEmail"`
	ReceiverEmail string             `bson:"receiverEmail" json:"receiverEmail"`
	Message       string             `bson:"message" json:"message"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Read          bool               `bson:"read" json:"read"`
}

// Notification is created exactly once per (event, recipient) pair. Kind
// selects which of the optional related fields are meaningful: message and
// post notifications carry the triggering record id and the sender's email.
type Notification struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"userId" json:"userId"`
	Kind         NotificationKind   `bson:"type" json:"type"`
	Title        string             `bson:"title" json:"title"`
	Message      string             `bson:"message" json:"message"`
	RelatedID    string             `bson:"relatedId,omitempty" json:"relatedId,omitempty"`
	RelatedEmail string             `bson:"relatedEmail,omitempty" json:"relatedEmail,omitempty"`
	Read         bool               `bson:"read" json:"read"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}

type Comment struct {
	Author    string    `bson:"author" json:"author"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Post keeps likedBy alongside likeCount so the like toggle is idempotent per
// user; likeCount is denormalized for cheap listing.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Caption   string             `bson:"caption" json:"caption"`
	Image     string             `bson:"image" json:"image"`
	Date      time.Time          `bson:"date" json:"date"`
	LikeCount int                `bson:"likeCount" json:"likeCount"`
	Comments  []Comment          `bson:"comment" json:"comment"`
	LikedBy   []string           `bson:"likedBy" json:"likedBy"`
}

type DailyEntry struct {
	Date          time.Time `bson:"date" json:"date"`
	Watered       bool      `bson:"watered" json:"watered"`
	Fertilized    bool      `bson:"fertilized" json:"fertilized"`
	SunlightHours float64   `bson:"sunlightHours" json:"sunlightHours"`
	Temperature   *float64  `bson:"temperature,omitempty" json:"temperature,omitempty"`
	Humidity      *float64  `bson:"humidity,omitempty" json:"humidity,omitempty"`
	Notes         string    `bson:"notes" json:"notes"`
	HealthStatus  string    `bson:"healthStatus" json:"healthStatus"`
	GrowthNotes   string    `bson:"growthNotes" json:"growthNotes"`
}

type CareSchedule struct {
	WateringFrequency    int        `bson:"wateringFrequency" json:"wateringFrequency"`
	FertilizingFrequency int        `bson:"fertilizingFrequency" json:"fertilizingFrequency"`
	LastWatered          *time.Time `bson:"lastWatered,omitempty" json:"lastWatered,omitempty"`
	LastFertilized       *time.Time `bson:"lastFertilized,omitempty" json:"lastFertilized,omitempty"`
}

type Plant struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserEmail    string             `bson:"userEmail" json:"userEmail"`
	PlantName    string             `bson:"plantName" json:"plantName"`
	PlantType    string             `bson:"plantType" json:"plantType"`
	DateAdded    time.Time          `bson:"dateAdded" json:"dateAdded"`
	Image        string             `bson:"image" json:"image"`
	Notes        string             `bson:"notes" json:"notes"`
	DailyEntries []DailyEntry       `bson:"dailyEntries" json:"dailyEntries"`
	CareSchedule CareSchedule       `bson:"careSchedule" json:"careSchedule"`
}
