package simulator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gridhail/ridesim/internal/cloudwriter"
	"github.com/gridhail/ridesim/internal/models"
	"github.com/gridhail/ridesim/internal/output"
	"github.com/gridhail/ridesim/internal/simulator/producers"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// Topics for the outbound event feed.
const (
	TopicRideEvents   = "ride_events"
	TopicEntityEvents = "entity_events"
	TopicTickMetrics  = "tick_metrics"
)

// ticksPerPartition groups event files into tick-range partitions, the
// moral equivalent of hourly partitions for wall-clock data.
const ticksPerPartition = 1000

type OutputDestination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// WriteEvent serializes one simulation event and hands it to the sink.
func WriteEvent(dest OutputDestination, event models.Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error serializing %s event: %w", event.Type, err)
	}
	return dest.WriteMessage(topicFor(event.Type), msg)
}

func topicFor(eventType string) string {
	switch eventType {
	case models.EventDriverCreated, models.EventRiderCreated:
		return TopicEntityEvents
	case models.EventTickAdvanced:
		return TopicTickMetrics
	default:
		return TopicRideEvents
	}
}

func partitionFor(event map[string]interface{}) string {
	tick, _ := event["tick"].(float64)
	return fmt.Sprintf("ticks=%08d", (int(tick)/ticksPerPartition)*ticksPerPartition)
}

type ConsoleOutput struct{}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	out := fmt.Sprintf("[%s] %s\n", topic, string(msg))
	_, err := os.Stdout.Write([]byte(out))
	if err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	_ = os.Stdout.Sync()
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }

type JSONOutput struct {
	basePath string
	folder   string
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteMessage(topic string, msg []byte) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}

	partitionPath := partitionFor(event)
	fullPath := filepath.Join(j.basePath, j.folder, topic, partitionPath)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return err
	}

	fileKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	file, ok := j.files[fileKey]
	if !ok {
		var err error
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[fileKey] = file
	}

	if _, err := file.Write(msg); err != nil {
		return err
	}
	_, err := file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	for _, file := range j.files {
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}

type CSVOutput struct {
	basePath string
	folder   string
	files    map[string]*csv.Writer
	headers  map[string][]string
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*csv.Writer),
		headers:  make(map[string][]string),
	}
}

func (c *CSVOutput) WriteMessage(topic string, msg []byte) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}
	// CSV rows are flat; the payload columns matter, not the envelope.
	flat := flattenEvent(event)

	partitionPath := partitionFor(event)
	fullPath := filepath.Join(c.basePath, c.folder, topic, partitionPath)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return err
	}

	fileKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	csvWriter, ok := c.files[fileKey]
	if !ok {
		file, err := os.Create(filepath.Join(fullPath, "data.csv"))
		if err != nil {
			return err
		}
		csvWriter = csv.NewWriter(file)
		c.files[fileKey] = csvWriter

		headers := c.getHeaders(flat)
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
		c.headers[fileKey] = headers
	}

	row := make([]string, len(c.headers[fileKey]))
	for i, header := range c.headers[fileKey] {
		value, ok := flat[header]
		if !ok {
			row[i] = ""
		} else {
			row[i] = fmt.Sprintf("%v", value)
		}
	}

	if err := csvWriter.Write(row); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (c *CSVOutput) getHeaders(event map[string]interface{}) []string {
	var headers []string
	for key := range event {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

func (c *CSVOutput) Close() error {
	for _, csvWriter := range c.files {
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			return err
		}
	}
	return nil
}

func flattenEvent(event map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{})
	for key, value := range event {
		nested, ok := value.(map[string]interface{})
		if !ok {
			flat[key] = value
			continue
		}
		for nk, nv := range nested {
			flat[nk] = nv
		}
	}
	return flat
}

type ParquetOutput struct {
	basePath           string
	folder             string
	mu                 sync.Mutex
	writers            map[string]*writer.ParquetWriter
	files              map[string]source.ParquetFile
	cloudWriterFactory cloudwriter.CloudWriterFactory
	cloudBucketName    string
}

func NewParquetOutput(config *models.Config) (*ParquetOutput, error) {
	p := &ParquetOutput{
		basePath: config.OutputPath,
		folder:   config.OutputFolder,
		writers:  make(map[string]*writer.ParquetWriter),
		files:    make(map[string]source.ParquetFile),
	}

	if config.CloudStorage.Provider != "" {
		switch config.CloudStorage.Provider {
		case "s3":
			factory, err := cloudwriter.NewS3WriterFactory(config.CloudStorage.Region)
			if err != nil {
				return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
			}
			p.cloudWriterFactory = factory
			p.cloudBucketName = config.CloudStorage.BucketName
		default:
			return nil, fmt.Errorf("unsupported cloud storage provider: %s", config.CloudStorage.Provider)
		}
	}

	return p, nil
}

// schemaFor returns a zero value of the typed row written to each topic.
func schemaFor(topic string) (interface{}, error) {
	switch topic {
	case TopicRideEvents:
		return new(models.RideEventData), nil
	case TopicEntityEvents:
		return new(models.EntityEventData), nil
	case TopicTickMetrics:
		return new(models.TickEventData), nil
	default:
		return nil, fmt.Errorf("no parquet schema for topic %s", topic)
	}
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	var event struct {
		Tick int             `json:"tick"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}

	partitionPath := fmt.Sprintf("ticks=%08d", (event.Tick/ticksPerPartition)*ticksPerPartition)
	fullPath := filepath.Join(p.basePath, p.folder, topic, partitionPath)
	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return err
	}

	writerKey := fmt.Sprintf("%s_%s", topic, partitionPath)
	p.mu.Lock()
	defer p.mu.Unlock()

	pw, ok := p.writers[writerKey]
	if !ok {
		var err error
		pw, err = p.createNewWriter(writerKey, fullPath, topic, partitionPath)
		if err != nil {
			return fmt.Errorf("failed to create new writer: %w", err)
		}
	}

	row, err := schemaFor(topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(event.Data, row); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", topic, err)
	}
	if err := pw.Write(row); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (p *ParquetOutput) createNewWriter(writerKey, fullPath, topic, partitionPath string) (*writer.ParquetWriter, error) {
	var fw source.ParquetFile
	var err error
	if p.cloudWriterFactory != nil {
		objectPath := filepath.Join(p.folder, topic, partitionPath, "data.parquet")
		cloudWriter, err := p.cloudWriterFactory.NewWriter(p.cloudBucketName, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		fw = cloudwriter.NewCloudParquetFile(cloudWriter)
	} else {
		filePath := filepath.Join(fullPath, "data.parquet")
		fw, err = local.NewLocalFileWriter(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create local file writer: %w", err)
		}
	}

	sc, err := schemaFor(topic)
	if err != nil {
		return nil, err
	}
	pw, err := writer.NewParquetWriter(fw, sc, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	p.writers[writerKey] = pw
	p.files[writerKey] = fw
	return pw, nil
}

func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for key, pw := range p.writers {
		if pw == nil {
			continue
		}
		if err := pw.WriteStop(); err != nil {
			lastErr = err
			log.Printf("Error closing writer for key %s: %v", key, err)
		}
		if f, ok := p.files[key]; ok {
			if err := f.Close(); err != nil {
				lastErr = err
				log.Printf("Error closing file for key %s: %v", key, err)
			}
		}
	}
	return lastErr
}

// NewOutputDestination builds the configured event sink.
func NewOutputDestination(config *models.Config) (OutputDestination, error) {
	if config.KafkaEnabled {
		switch config.KafkaProducer {
		case "confluent":
			confluentConfig := kafka.ConfigMap{
				"bootstrap.servers":  config.KafkaBrokerList,
				"session.timeout.ms": config.SessionTimeoutMs,
				"linger.ms":          10,
				"batch.num.messages": 100,
				"compression.type":   "snappy",
				"enable.idempotence": true,
				"acks":               "all",
				"retry.backoff.ms":   100,
			}
			return producers.NewConfluentProducer(confluentConfig)
		default:
			return producers.NewSaramaProducer(config)
		}
	}

	switch config.OutputDestination {
	case "", "console":
		return &ConsoleOutput{}, nil
	case "json":
		return NewJSONOutput(config.OutputPath, config.OutputFolder), nil
	case "csv":
		return NewCSVOutput(config.OutputPath, config.OutputFolder), nil
	case "parquet":
		return NewParquetOutput(config)
	case "postgres":
		return output.NewPostgresOutput(&config.Database)
	default:
		return nil, fmt.Errorf("unsupported output destination: %s", config.OutputDestination)
	}
}
