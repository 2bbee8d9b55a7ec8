package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"labpulse/internal/model"
	"labpulse/internal/store"
)

// Coordinator 导入协调器
type Coordinator struct {
	store *store.Store
}

// NewCoordinator 创建导入协调器
func NewCoordinator(store *store.Store) *Coordinator {
	return &Coordinator{store: store}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	Filename string // 展示用文件名；为空时取 FilePath 的文件名
	Type     model.ImportType
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/warning/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// importContext 单次导入的上下文
type importContext struct {
	ctx          context.Context
	file         *excelize.File
	report       *model.ImportReport
	progressChan chan ProgressEvent
}

// Import 执行导入，返回进度通道
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

// Run 同步执行导入并返回最终报告
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions) (*model.ImportReport, error) {
	var report *model.ImportReport
	var failure error
	for evt := range c.Import(ctx, opts) {
		switch evt.Type {
		case "error":
			failure = errors.New(evt.Message)
		case "done":
			report, _ = evt.Data.(*model.ImportReport)
		}
	}
	if failure != nil {
		return report, failure
	}
	if report == nil {
		return nil, fmt.Errorf("import finished without report")
	}
	return report, nil
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()

	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: fmt.Sprintf("Importing %s (%s)", filename, opts.Type),
		Data: map[string]string{
			"filename": filename,
			"type":     string(opts.Type),
		},
		Timestamp: time.Now(),
	})

	file, err := excelize.OpenFile(opts.FilePath)
	if err != nil {
		c.fail(progressChan, "failed to open workbook: %v", err)
		return
	}
	defer file.Close()

	if opts.Type == model.ImportAuto {
		rec, err := recognizeWorkbook(file)
		if err != nil {
			c.fail(progressChan, "%v", err)
			return
		}
		opts.Type = rec.Type
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "info",
			Message:   fmt.Sprintf("Recognized sheet %q as %s (%.0f%%)", rec.SheetName, rec.Type, rec.Confidence*100),
			Data:      rec,
			Timestamp: time.Now(),
		})
	}

	ic := &importContext{
		ctx:  ctx,
		file: file,
		report: &model.ImportReport{
			ImportID:   uuid.New().String(),
			Type:       opts.Type,
			Filename:   filename,
			Warnings:   []string{},
			ImportedAt: startTime,
		},
		progressChan: progressChan,
	}

	switch opts.Type {
	case model.ImportOffices:
		err = c.importOffices(ic)
	case model.ImportFinancials:
		err = c.importFinancials(ic)
	case model.ImportWeeklyVolume:
		err = c.importWeeklyVolume(ic)
	default:
		err = fmt.Errorf("unsupported import type: %s", opts.Type)
	}
	if err != nil {
		c.fail(progressChan, "%v", err)
		return
	}

	ic.report.Duration = time.Since(startTime).String()

	if err := c.store.CreateImportLog(ctx, *ic.report); err != nil {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "warning",
			Message:   fmt.Sprintf("failed to write import log: %v", err),
			Timestamp: time.Now(),
		})
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "done",
		Message:   "import completed",
		Data:      ic.report,
		Timestamp: time.Now(),
	})
}

// rows 读取工作表全部行（含表头）
func (ic *importContext) rows(sheetName string) ([][]string, error) {
	if sheetName == "" {
		sheets := ic.file.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no worksheets found in file")
		}
		sheetName = sheets[0]
	}
	rows, err := ic.file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

// warn 记录行级警告
func (c *Coordinator) warn(ic *importContext, format string, args ...interface{}) {
	ic.report.AddWarning(format, args...)
	c.sendProgress(ic.progressChan, ProgressEvent{
		Type:      "warning",
		Message:   ic.report.Warnings[len(ic.report.Warnings)-1],
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) fail(progressChan chan ProgressEvent, format string, args ...interface{}) {
	c.sendProgress(progressChan, ProgressEvent{
		Type:      "error",
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
//
// done/error 事件必须送达，其余事件在通道满时丢弃。
func (c *Coordinator) sendProgress(progressChan chan ProgressEvent, event ProgressEvent) {
	if event.Type == "done" || event.Type == "error" {
		progressChan <- event
		return
	}
	select {
	case progressChan <- event:
	default:
		// 通道已满，丢弃事件
	}
}
