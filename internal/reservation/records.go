package reservation

import (
	"context"
	"time"

	"room-reservation-backend/internal/apperr"
	"room-reservation-backend/internal/model"
	"room-reservation-backend/internal/store"
)

// DateRange bounds order listings by date, inclusive. Empty ends are open.
type DateRange struct {
	From string
	To   string
}

// ReportInput is the equipment checklist of a report. A true flag marks faulty equipment.
type ReportInput struct {
	LED                  bool
	AirConditioner       bool
	Socket               bool
	Projector            bool
	InteractiveDisplay   bool
	OnlineMeetingDevices bool
	Description          string
}

// GetOrder returns an order visible to userID. Admins see every order.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64, admin bool) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order %d not found", orderID)
	}
	if !admin && order.UserID != userID {
		return nil, apperr.Forbidden("order %d belongs to another user", orderID)
	}
	return order, nil
}

// ListOrders returns the orders of userID, optionally bounded by date.
func (s *Service) ListOrders(ctx context.Context, userID int64, r DateRange) ([]model.Order, error) {
	if r.From != "" && r.To != "" && r.From > r.To {
		return nil, apperr.Validation("date range start %s is after its end %s", r.From, r.To)
	}
	return s.store.ListOrders(ctx, store.OrderFilter{UserID: userID, From: r.From, To: r.To})
}

// ListCancellations returns the cancellations made by userID.
func (s *Service) ListCancellations(ctx context.Context, userID int64) ([]model.CancelRecord, error) {
	return s.store.ListCancelRecords(ctx, userID)
}

// CancellationForOrder returns the cancel record of an order visible to userID.
func (s *Service) CancellationForOrder(ctx context.Context, userID, orderID int64, admin bool) (*model.CancelRecord, error) {
	if _, err := s.GetOrder(ctx, userID, orderID, admin); err != nil {
		return nil, err
	}
	rec, err := s.store.CancelRecordForOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order %d was not cancelled", orderID)
	}
	return rec, nil
}

// ListOccupancies returns the occupancy history of userID, newest first.
func (s *Service) ListOccupancies(ctx context.Context, userID int64) ([]model.UsedRoom, error) {
	return s.store.ListUsedRooms(ctx, userID)
}

// OccupancyForOrder returns the occupancy opened by an order visible to userID.
func (s *Service) OccupancyForOrder(ctx context.Context, userID, orderID int64, admin bool) (*model.UsedRoom, error) {
	if _, err := s.GetOrder(ctx, userID, orderID, admin); err != nil {
		return nil, err
	}
	used, err := s.store.UsedRoomForOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order %d was never checked in", orderID)
	}
	return used, nil
}

// FileReport attaches an equipment report to the room userID currently occupies.
func (s *Service) FileReport(ctx context.Context, userID int64, in ReportInput, now time.Time) (*model.Report, error) {
	used, err := s.store.OpenUsedRoom(ctx, userID)
	if err != nil {
		return nil, notFound(err, "you are not checked in to any room")
	}
	if len(in.Description) > 1024 {
		return nil, apperr.Validation("description must be at most 1024 characters")
	}

	report := &model.Report{
		UsedRoomID:           used.ID,
		UserID:               userID,
		RoomID:               used.RoomID,
		LED:                  in.LED,
		AirConditioner:       in.AirConditioner,
		Socket:               in.Socket,
		Projector:            in.Projector,
		InteractiveDisplay:   in.InteractiveDisplay,
		OnlineMeetingDevices: in.OnlineMeetingDevices,
		Description:          in.Description,
		CreatedAt:            now,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport returns a report visible to userID. Admins see every report.
func (s *Service) GetReport(ctx context.Context, userID, reportID int64, admin bool) (*model.Report, error) {
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, notFound(err, "report %d not found", reportID)
	}
	if !admin && report.UserID != userID {
		return nil, apperr.Forbidden("report %d belongs to another user", reportID)
	}
	return report, nil
}

// ListReports returns the reports filed by userID.
func (s *Service) ListReports(ctx context.Context, userID int64) ([]model.Report, error) {
	return s.store.ListReports(ctx, userID)
}
