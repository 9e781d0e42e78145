package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motolinktech/server/internal/model"
	"github.com/motolinktech/server/internal/repository"
)

const calendarDefaultSpan = 30 // days

// ExportService renders schedules as downloadable artifacts.
type ExportService interface {
	// ClientDayRoster builds the spreadsheet operators print for a client's
	// day: one row per slot, couriers and attendance included.
	ClientDayRoster(ctx context.Context, clientID, date string) ([]byte, string, error)
	// DeliverymanCalendar builds an iCalendar feed of a courier's committed
	// shifts. Empty from/to default to the next 30 days.
	DeliverymanCalendar(ctx context.Context, deliverymanID, from, to string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	norm   *TimeNormalizer
	logger *zap.Logger
}

// NewExportService builds the export service.
func NewExportService(repo *repository.Repository, norm *TimeNormalizer, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, norm: norm, logger: logger}
}

var rosterHeaders = []string{"Deliveryman", "Start", "End", "Status", "Period", "Contract", "Check-in", "Check-out"}

func (s *exportService) ClientDayRoster(ctx context.Context, clientID, date string) ([]byte, string, error) {
	client, err := s.repo.Client.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClientNotFound
		}
		return nil, "", err
	}
	day, err := s.norm.ParseDate(date)
	if err != nil {
		return nil, "", err
	}

	slots, err := s.repo.WorkShiftSlot.ListForDay(ctx, clientID, day, day.AddDate(0, 0, 1), nil, false)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Roster"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}

	title := fmt.Sprintf("%s — %s", client.Name, day.Format("02/01/2006"))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, "", err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", err
	}

	for col, h := range rosterHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, "", err
		}
	}

	loc := s.norm.Location()
	for i := range slots {
		slot := &slots[i]
		name := "—"
		if slot.Deliveryman != nil {
			name = slot.Deliveryman.Name
		}
		row := []interface{}{
			name,
			slot.StartTime.In(loc).Format("15:04"),
			slot.EndTime.In(loc).Format("15:04"),
			slot.Status,
			joinPeriods(slot.Period),
			slot.ContractType,
			formatClock(slot.CheckInAt, loc),
			formatClock(slot.CheckOutAt, loc),
		}
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+3)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("roster_%s.xlsx", day.Format("2006-01-02"))
	s.logger.Info("roster exported",
		zap.String("client_id", clientID),
		zap.Time("day", day),
		zap.Int("rows", len(slots)),
	)
	return buf.Bytes(), filename, nil
}

// calendarStatuses are the statuses worth a calendar entry: real commitments,
// past or upcoming.
var calendarStatuses = []string{
	model.StatusConfirmed, model.StatusCheckedIn,
	model.StatusPendingCompletion, model.StatusCompleted,
}

func (s *exportService) DeliverymanCalendar(ctx context.Context, deliverymanID, from, to string) ([]byte, string, error) {
	dm, err := s.repo.Deliveryman.GetByID(ctx, deliverymanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDeliverymanNotFound
		}
		return nil, "", err
	}

	start := s.norm.StartOfDay(time.Now().In(s.norm.Location()))
	end := start.AddDate(0, 0, calendarDefaultSpan)
	if from != "" {
		if start, err = s.norm.ParseDate(from); err != nil {
			return nil, "", err
		}
		end = start.AddDate(0, 0, calendarDefaultSpan)
	}
	if to != "" {
		if end, err = s.norm.ParseDate(to); err != nil {
			return nil, "", err
		}
	}

	slots, _, err := s.repo.WorkShiftSlot.List(ctx, repository.SlotListFilter{
		DeliverymanID: deliverymanID,
		Statuses:      calendarStatuses,
		From:          start,
		To:            end,
		Limit:         bulkBatchLimit,
	})
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Motolink//Shift Calendar//PT-BR")

	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		summary := "Turno de entrega"
		location := ""
		if slot.Client != nil {
			summary = fmt.Sprintf("Turno — %s", slot.Client.Name)
			location = slot.Client.Address()
		}

		event := cal.AddEvent(slot.WorkShiftSlotID)
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(slot.StartTime.UTC())
		event.SetEndAt(slot.EndTime.UTC())
		event.SetSummary(summary)
		if location != "" {
			event.SetLocation(location)
		}
		event.SetDescription(fmt.Sprintf("Status: %s", slot.Status))
	}

	shortID := dm.DeliverymanID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	filename := fmt.Sprintf("shifts_%s.ics", shortID)
	s.logger.Info("calendar exported",
		zap.String("deliveryman_id", deliverymanID),
		zap.Int("events", len(slots)),
	)
	return []byte(cal.Serialize()), filename, nil
}

func joinPeriods(periods model.StringArray) string {
	out := ""
	for i, p := range periods {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func formatClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04")
}
