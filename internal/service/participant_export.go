package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/participant-registry/internal/lifecycle"
)

const exportSheet = "Participants"

var exportHeader = []interface{}{
	"ID", "Name", "Phone Number", "Email", "Type",
	"Amount Paid", "Due Amount", "Discount", "Incentives Paid",
	"Date of Joining", "Inactive On", "Status", "Inactivity Reason",
	"Country", "State", "Address", "Government ID Proof",
}

// Export renders every participant into an XLSX workbook, sorted by name.
func (s *participantService) Export(ctx context.Context) ([]byte, error) {
	spanCtx, span := s.tracer.Start(ctx, "participants.export")
	defer span.End()

	today := s.today()
	if err := s.healAll(spanCtx, today); err != nil {
		span.RecordError(err)
		return nil, err
	}

	participants, err := s.repo.ListAll(spanCtx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close export workbook")
		}
	}()

	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename export sheet: %w", err)
	}
	if err := file.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}

	for i, participant := range participants {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		joined := time.Time(participant.DateOfJoining)
		row := []interface{}{
			participant.ID,
			participant.Name,
			participant.PhoneNumber,
			participant.Email,
			participant.Type,
			participant.AmountPaid,
			participant.DueAmount,
			participant.Discount,
			participant.IncentivesPaid,
			lifecycle.FormatDate(&joined),
			lifecycle.FormatDate(participant.InactiveOnTime()),
			participant.ActivityStatus,
			participant.InactivityReason,
			participant.Country,
			participant.State,
			participant.Address,
			participant.GovernmentIDProof,
		}
		if err := file.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write export row %d: %w", i+2, err)
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("encode export workbook: %w", err)
	}

	s.logger.Info().Int("rows", len(participants)).Msg("participants exported")
	return buffer.Bytes(), nil
}
