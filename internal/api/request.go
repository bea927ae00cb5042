package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation-backend/internal/calendar"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/parse"
	"room-reservation-backend/internal/reservation"
)

// slotInput is the wire form of a requested interval, e.g.
// {"date":"2025-03-01","begin":"09:00","end":"10:30"}.
type slotInput struct {
	Date  string `json:"date" form:"date" binding:"required"`
	Begin string `json:"begin" form:"begin" binding:"required"`
	End   string `json:"end" form:"end" binding:"required"`
}

func (in slotInput) toRequest() (reservation.SlotRequest, error) {
	d, err := parse.ParseDate(in.Date)
	if err != nil {
		return reservation.SlotRequest{}, err
	}
	begin, err := parse.ParseClock(in.Begin)
	if err != nil {
		return reservation.SlotRequest{}, err
	}
	end, err := parse.ParseClock(in.End)
	if err != nil {
		return reservation.SlotRequest{}, err
	}
	return reservation.SlotRequest{Year: d.Year, Month: d.Month, Day: d.Day, Begin: begin, End: end}, nil
}

// bindSlot reads a slot from the JSON body (POST/PUT) or the query string (GET).
func bindSlot(c *gin.Context, dst any) bool {
	var err error
	if c.Request.Method == "GET" {
		err = c.ShouldBindQuery(dst)
	} else {
		err = c.ShouldBindJSON(dst)
	}
	if err != nil {
		badRequest(c, "invalid request")
		return false
	}
	return true
}

func parseSlot(c *gin.Context, in slotInput) (reservation.SlotRequest, bool) {
	req, err := in.toRequest()
	if err != nil {
		badRequest(c, err.Error())
		return reservation.SlotRequest{}, false
	}
	return req, true
}

// orderResponse adds the derived legacy flags and readable times to an order.
type orderResponse struct {
	model.Order
	Begin    string `json:"begin"`
	End      string `json:"end"`
	IsUsed   bool   `json:"is_used"`
	IsCancel bool   `json:"is_cancel"`
}

func newOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		Order:    *o,
		Begin:    calendar.FormatClock(o.BeginMinute),
		End:      calendar.FormatClock(o.EndMinute),
		IsUsed:   o.IsUsed(),
		IsCancel: o.IsCancel(),
	}
}

type intervalResponse struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

func newIntervalResponses(ivs []calendar.Interval) []intervalResponse {
	out := make([]intervalResponse, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, intervalResponse{Begin: calendar.FormatClock(iv.Begin), End: calendar.FormatClock(iv.End)})
	}
	return out
}

// dateRange reads optional from/to query parameters in calendar.DateLayout.
func dateRange(c *gin.Context) (reservation.DateRange, bool) {
	r := reservation.DateRange{From: c.Query("from"), To: c.Query("to")}
	for _, v := range []string{r.From, r.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(calendar.DateLayout, v); err != nil {
			badRequest(c, "dates must use "+calendar.DateLayout)
			return r, false
		}
	}
	return r, true
}
