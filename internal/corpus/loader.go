package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"movie-rec-go/internal/model"
	"movie-rec-go/pkg/log"
)

// LoadOptions 控制读取的行数与完整性检查。
type LoadOptions struct {
	// Limit 最多读取的数据行数，<= 0 表示全部读取。
	Limit int
	// MinRows 少于该行数视为截断文件（例如只有 LFS 指针），<= 0 关闭检查。
	MinRows int
}

// Load 打开 path 指向的 CSV 数据集并读取为 Corpus。
func Load(path string, opts LoadOptions) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 打开数据集失败 %s: %v", model.ErrLoad, path, err)
	}
	defer f.Close()

	c, err := Read(f, opts)
	if err != nil {
		return nil, err
	}
	log.Infof("[CorpusLoader] 从 %s 读取 %d 部电影, 特征列: %v", path, c.Len(), c.featureColumns)
	return c, nil
}

// Read 从 r 读取 CSV 数据。第一行必须是表头，且包含 title 列。
func Read(r io.Reader, opts LoadOptions) (*Corpus, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: 数据集为空", model.ErrLoad)
		}
		return nil, fmt.Errorf("%w: 读取表头失败: %v", model.ErrLoad, err)
	}
	cols := indexHeader(header)

	titleCol, ok := cols["title"]
	if !ok {
		return nil, fmt.Errorf("%w: 数据集缺少 title 列", model.ErrLoad)
	}
	idCol, hasID := cols["id"]

	var featureColumns []string
	for _, name := range featureColumnOrder {
		if _, ok := cols[name]; ok {
			featureColumns = append(featureColumns, name)
		}
	}

	var movies []model.MovieRecord
	rows := 0
	for opts.Limit <= 0 || rows < opts.Limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: 解析第 %d 行失败: %v", model.ErrLoad, rows+2, err)
		}
		rows++

		title := strings.TrimSpace(field(record, titleCol))
		if title == "" {
			continue
		}
		m := model.MovieRecord{
			Title:               title,
			Genres:              column(record, cols, "genres"),
			Keywords:            column(record, cols, "keywords"),
			Tagline:             column(record, cols, "tagline"),
			Overview:            column(record, cols, "overview"),
			OriginalLanguage:    column(record, cols, "original_language"),
			SpokenLanguages:     column(record, cols, "spoken_languages"),
			ProductionCountries: column(record, cols, "production_countries"),
		}
		if hasID {
			m.ID = parseID(field(record, idCol))
		}
		if popCol, ok := cols["popularity"]; ok {
			m.Popularity = parseFloat(field(record, popCol))
		}
		movies = append(movies, m)
	}

	minRows := opts.MinRows
	if opts.Limit > 0 && opts.Limit < minRows {
		minRows = opts.Limit
	}
	if minRows > 0 && len(movies) < minRows {
		return nil, fmt.Errorf("%w: 数据集只有 %d 行，少于最小行数 %d，疑似被截断", model.ErrLoad, len(movies), minRows)
	}

	return newCorpus(movies, featureColumns, hasID), nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func column(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return ""
	}
	return field(record, i)
}

// parseID 接受整数以及形如 "19995.0" 的整值浮点数。
func parseID(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	v := int64(f)
	return &v
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}
