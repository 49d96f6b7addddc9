package service

import (
	"context"
	"fmt"
	"time"

	"github.com/voltora/warranty/internal/warranty/entity"
	"github.com/voltora/warranty/internal/warranty/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 报表服务
type ReportService struct {
	claimRepo *repository.ClaimRepository
	prRepo    *repository.PartRequestRepository
}

// NewReportService 创建报表服务
func NewReportService(claimRepo *repository.ClaimRepository, prRepo *repository.PartRequestRepository) *ReportService {
	return &ReportService{claimRepo: claimRepo, prRepo: prRepo}
}

var claimExportHeaders = []string{
	"Claim ID", "Status", "Claim Date", "Resolution Date", "VIN", "Model",
	"Part Number", "Part Name", "Serial Number", "Service Center", "Description",
}

// ExportClaims 导出工单台账为xlsx
func (s *ReportService) ExportClaims(ctx context.Context, filters map[string]string) (*excelize.File, string, error) {
	claims, err := s.claimRepo.ListAllForExport(ctx, filters)
	if err != nil {
		return nil, "", fmt.Errorf("list claims: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Claims"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// 写入表头
	for i, h := range claimExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	// 写入数据行
	var completed int
	for rowIdx, claim := range claims {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), claim.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), claim.Status)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), claim.ClaimDate.Format("2006-01-02"))
		if claim.ResolutionDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), claim.ResolutionDate.Format("2006-01-02"))
		}
		if claim.Vehicle != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), claim.Vehicle.VIN)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), claim.Vehicle.Model)
		}
		if claim.InstalledPart != nil {
			if claim.InstalledPart.Part != nil {
				f.SetCellValue(sheet, fmt.Sprintf("G%d", row), claim.InstalledPart.Part.PartNumber)
				f.SetCellValue(sheet, fmt.Sprintf("H%d", row), claim.InstalledPart.Part.Name)
			}
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), claim.InstalledPart.SerialNumber)
		}
		if claim.ServiceCenter != nil {
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), claim.ServiceCenter.Name)
		}
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), claim.Description)

		if claim.Status == entity.ClaimStatusCompleted {
			completed++
		}
	}

	// 底部汇总行
	summaryRow := len(claims) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow), fmt.Sprintf("%d claims, %d completed", len(claims), completed))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("K%d", summaryRow), summaryStyle)

	// 列宽
	colWidths := []float64{34, 14, 12, 14, 20, 14, 16, 20, 16, 20, 40}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("warranty_claims_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

// DashboardStats 看板统计
type DashboardStats struct {
	ClaimsByStatus       map[string]int64 `json:"claims_by_status"`
	PartRequestsByStatus map[string]int64 `json:"part_requests_by_status"`
}

// Dashboard 按状态统计工单与申领单数量
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	prCounts, err := s.prRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count part requests: %w", err)
	}

	claimCounts, err := s.claimRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}

	return &DashboardStats{
		ClaimsByStatus:       claimCounts,
		PartRequestsByStatus: prCounts,
	}, nil
}
