package campaign

import "time"

// CreateReq is the campaign creation payload.
type CreateReq struct {
	PlatformID          int64    `json:"platformId"          binding:"required"`
	CategoryID          *int64   `json:"categoryId"`
	StoreName           string   `json:"storeName"           binding:"required"`
	StorePhone          string   `json:"storePhone"          binding:"required"`
	Address             string   `json:"address"             binding:"required"`
	SupportAmount       *int64   `json:"supportAmount"       binding:"required"`
	ExtraCost           *int64   `json:"extraCost"`
	ReceiptReview       bool     `json:"receiptReview"`
	ExperienceStartDate string   `json:"experienceStartDate" binding:"required"`
	ExperienceEndDate   string   `json:"experienceEndDate"   binding:"required"`
	Deadline            string   `json:"deadline"            binding:"required"`
	AvailableDays       []string `json:"availableDays"       binding:"required,min=1,dive,required"`
	AvailableTime       string   `json:"availableTime"       binding:"required"`
}

// Patch carries a partial update: nil fields are left untouched. Status is
// deliberately absent; it only moves through the state machine.
type Patch struct {
	PlatformID    *int64    `json:"platformId"`
	CategoryID    *int64    `json:"categoryId"`
	StoreName     *string   `json:"storeName"`
	StorePhone    *string   `json:"storePhone"`
	Address       *string   `json:"address"`
	SupportAmount *int64    `json:"supportAmount"`
	ExtraCost     *int64    `json:"extraCost"`
	ReceiptReview *bool     `json:"receiptReview"`
	AvailableDays *[]string `json:"availableDays"`
	AvailableTime *string   `json:"availableTime"`
}

// Response is the read-path representation; this is what gets cached.
type Response struct {
	ID                  int64    `json:"id"`
	StoreName           string   `json:"storeName"`
	StorePhone          string   `json:"storePhone"`
	Address             string   `json:"address"`
	PlatformName        string   `json:"platformName"`
	SupportAmount       *int64   `json:"supportAmount"`
	ExtraCost           *int64   `json:"extraCost"`
	ReceiptReview       bool     `json:"receiptReview"`
	ExperienceStartDate string   `json:"experienceStartDate"`
	ExperienceEndDate   string   `json:"experienceEndDate"`
	Deadline            string   `json:"deadline"`
	VisitDate           *string  `json:"visitDate"`
	AvailableDays       []string `json:"availableDays"`
	AvailableTime       string   `json:"availableTime"`
	Status              string   `json:"status"`
	ReviewURL           *string  `json:"reviewUrl,omitempty"`
}

const dateLayout = "2006-01-02"

// ToResponse flattens an entity into its wire representation.
func ToResponse(c *Campaign) Response {
	var visitDate *string
	if c.VisitDate != nil {
		v := c.VisitDate.Format(dateLayout)
		visitDate = &v
	}
	return Response{
		ID:                  c.ID,
		StoreName:           c.StoreName,
		StorePhone:          c.StorePhone,
		Address:             c.Address,
		PlatformName:        c.PlatformName,
		SupportAmount:       c.SupportAmount,
		ExtraCost:           c.ExtraCost,
		ReceiptReview:       c.ReceiptReview,
		ExperienceStartDate: c.ExperienceStartDate.Format(dateLayout),
		ExperienceEndDate:   c.ExperienceEndDate.Format(dateLayout),
		Deadline:            c.Deadline.Format(dateLayout),
		VisitDate:           visitDate,
		AvailableDays:       SplitDays(c.AvailableDays),
		AvailableTime:       c.AvailableTime,
		Status:              string(c.Status),
		ReviewURL:           c.ReviewURL,
	}
}

// ToResponses maps a list of entities, never returning nil so the cached
// JSON form stays "[]" rather than "null".
func ToResponses(cs []*Campaign) []Response {
	out := make([]Response, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToResponse(c))
	}
	return out
}

// ReviewSubmittedEvent is published once per successful review submission
// and consumed idempotently by the reward worker.
type ReviewSubmittedEvent struct {
	CampaignID int64  `json:"campaign_id"`
	UserID     int64  `json:"user_id"`
	ReviewURL  string `json:"review_url"`
}

// ParseDate parses the wire date form used across requests.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
