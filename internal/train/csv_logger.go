package train

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVLogger logs training progress to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
	err    error
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

var csvHeader = []string{"step", "level", "iter", "loss", "lr", "time_seconds"}

func (c *CSVLogger) OnTrainBegin(t *Trainer) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		c.err = fmt.Errorf("csv log: %w", err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.write(csvHeader)
	}
}

func (c *CSVLogger) OnStepEnd(s Step, t *Trainer) {
	if c.writer == nil {
		return
	}
	c.write([]string{
		strconv.Itoa(s.Global),
		strconv.Itoa(s.Level),
		strconv.Itoa(s.Iteration),
		strconv.FormatFloat(s.Loss, 'g', -1, 64),
		strconv.FormatFloat(s.LearningRate, 'g', -1, 64),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	})
}

func (c *CSVLogger) OnTrainEnd(t *Trainer) {
	if c.file != nil {
		c.writer.Flush()
		if err := c.file.Close(); err != nil && c.err == nil {
			c.err = fmt.Errorf("csv log: %w", err)
		}
		c.file = nil
		c.writer = nil
	}
}

func (c *CSVLogger) write(record []string) {
	c.writer.Write(record)
	c.writer.Flush()
	if err := c.writer.Error(); err != nil && c.err == nil {
		c.err = fmt.Errorf("csv log: %w", err)
	}
}

// Err returns the first failure to open or write the log.
func (c *CSVLogger) Err() error {
	return c.err
}

// ReadCSVLog loads the steps recorded by a CSVLogger. Timing is dropped.
func ReadCSVLog(filename string) ([]Step, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	steps := make([]Step, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(csvHeader) {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i+1)
		}
		var s Step
		ints := []*int{&s.Global, &s.Level, &s.Iteration}
		for j, dst := range ints {
			if *dst, err = strconv.Atoi(record[j]); err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i+1, j, err)
			}
		}
		if s.Loss, err = strconv.ParseFloat(record[3], 64); err != nil {
			return nil, fmt.Errorf("failed to parse value at row %d, col 3: %w", i+1, err)
		}
		if s.LearningRate, err = strconv.ParseFloat(record[4], 64); err != nil {
			return nil, fmt.Errorf("failed to parse value at row %d, col 4: %w", i+1, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}
