// Package export 将结果表写成 CSV，并能读回
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/langchou/drivesynth/internal/models"
)

// ErrBadHeader CSV 表头与输出格式不一致
var ErrBadHeader = errors.New("unexpected csv header")

// WriteCSV 写出表头和所有表的数据行
func WriteCSV(w io.Writer, tables ...*models.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(models.Columns))
	for _, t := range tables {
		testID := t.TestID()
		for _, s := range t.Samples {
			row[0] = formatFloat(s.Time)
			row[1] = formatFloat(s.Speed)
			row[2] = formatFloat(s.Acceleration)
			row[3] = formatFloat(s.EngineRPM)
			row[4] = formatFloat(s.FuelConsumption)
			row[5] = formatFloat(s.Distance)
			row[6] = testID
			row[7] = t.VehicleType
			row[8] = t.ProfileType
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV 读回 CSV，相邻且车型/工况相同的行归为同一张表
func ReadCSV(r io.Reader) ([]*models.ResultTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(models.Columns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, models.Columns) {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}

	var (
		tables  []*models.ResultTable
		current *models.ResultTable
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		var s models.Sample
		fields := []*float64{&s.Time, &s.Speed, &s.Acceleration, &s.EngineRPM, &s.FuelConsumption, &s.Distance}
		for i, f := range fields {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s on line %d: %w", models.Columns[i], line, err)
			}
			*f = v
		}

		vehicleType, profileType := rec[7], rec[8]
		if current == nil || current.VehicleType != vehicleType || current.ProfileType != profileType {
			current = &models.ResultTable{VehicleType: vehicleType, ProfileType: profileType}
			tables = append(tables, current)
		}
		if rec[6] != current.TestID() {
			return nil, fmt.Errorf("line %d: test id %q does not match %q", line, rec[6], current.TestID())
		}
		current.Samples = append(current.Samples, s)
	}

	return tables, nil
}

// FileSink 写入本地文件，已存在时覆盖
type FileSink struct {
	Path string
}

// NewFileSink 创建文件输出
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

// Write 实现 generator.Sink
func (s *FileSink) Write(_ context.Context, tables ...*models.ResultTable) (err error) {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.Path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", s.Path, cerr)
		}
	}()

	return WriteCSV(f, tables...)
}

// ReadFile 读取 CSV 文件
func ReadFile(path string) ([]*models.ResultTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
