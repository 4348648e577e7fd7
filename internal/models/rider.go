package models

type Rider struct {
	ID       string      `json:"id"`
	Position Point       `json:"position"`
	Status   RiderStatus `json:"status"`
}

func (r *Rider) Clone() *Rider {
	c := *r
	return &c
}
