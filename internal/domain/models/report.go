package models

import "time"

// DeliveryCounts tallies stored outbound messages whose lifecycle column is
// set, plus RSVP answers and inbound volume.
type DeliveryCounts struct {
	Total     int64 `bson:"total" json:"total"`
	Sent      int64 `bson:"sent" json:"sent"`
	Delivered int64 `bson:"delivered" json:"delivered"`
	Read      int64 `bson:"read" json:"read"`
	Failed    int64 `bson:"failed" json:"failed"`
	Approved  int64 `bson:"approved" json:"approved"`
	Declined  int64 `bson:"declined" json:"declined"`
	Inbound   int64 `bson:"inbound" json:"inbound"`
}

// DeliveryDigest is the periodic summary sent to the operator and exported
// to Sheets.
type DeliveryDigest struct {
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	Counts      DeliveryCounts `json:"counts"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// ReadRate is Read/Delivered, or 0 when nothing was delivered.
func (d DeliveryDigest) ReadRate() float64 {
	if d.Counts.Delivered == 0 {
		return 0
	}
	return float64(d.Counts.Read) / float64(d.Counts.Delivered)
}
