package user

import "time"

// Scaling factors personalize kcal and distance based goals. The bounds
// correspond to a +-33% handicap window.
const (
	ScalingMin = 0.6666
	ScalingMax = 1.3333
)

type User struct {
	ID              string
	Email           string
	Name            string
	ScalingKcal     float64
	ScalingDistance float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func ValidScaling(v float64) bool {
	return v >= ScalingMin && v <= ScalingMax
}

// Principal is the authenticated caller resolved from an access token.
type Principal struct {
	UserID string
	Email  string
}
