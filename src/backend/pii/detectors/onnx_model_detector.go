package detectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"
)

const (
	maxSeqLen    = 512
	chunkOverlap = 64

	// minTokenConfidence drops tokens whose softmax probability is below it
	minTokenConfidence = 0.5
)

// ONNXModelDetector implements Detector using a token-classification NER model
type ONNXModelDetector struct {
	mu           sync.Mutex
	tokenizer    *tokenizers.Tokenizer
	session      *onnxruntime.AdvancedSession
	inputTensor  *onnxruntime.Tensor[int64]
	maskTensor   *onnxruntime.Tensor[int64]
	outputTensor *onnxruntime.Tensor[float32]
	id2label     map[string]string
	numLabels    int
	modelPath    string
}

// ONNXModelConfig holds paths to the model files
type ONNXModelConfig struct {
	ModelPath     string
	TokenizerPath string
	LabelMapPath  string
	LibraryPath   string
}

type tokenChunk struct {
	tokenIDs        []uint32
	offsets         []tokenizers.Offset
	startTokenIndex int
	isFirst         bool
	isLast          bool
}

// safeUintToInt safely converts a uint to int with bounds checking
// Returns maxInt if the value would overflow
func safeUintToInt(val uint) int {
	const maxInt = int(^uint(0) >> 1)
	if val <= uint(maxInt) {
		// #nosec G115 - Safe conversion with bounds checking
		return int(val)
	}
	return maxInt
}

// NewONNXModelDetector loads the tokenizer and label mapping. The ONNX session
// is created lazily on first use.
func NewONNXModelDetector(cfg ONNXModelConfig) (*ONNXModelDetector, error) {
	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if libPath == "" {
		for _, path := range []string{
			"./libonnxruntime.so",
			"./build/libonnxruntime.so",
			"./libonnxruntime.1.23.1.dylib",
			"./build/libonnxruntime.1.23.1.dylib",
		} {
			if _, err := os.Stat(path); err == nil {
				libPath = path
				break
			}
		}
	}
	if libPath != "" {
		onnxruntime.SetSharedLibraryPath(libPath)
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: model file: %v", ErrEngineUnavailable, err)
	}

	if !onnxruntime.IsInitialized() {
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: failed to initialize ONNX Runtime environment: %v", ErrEngineUnavailable, err)
		}
	}

	tk, err := tokenizers.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load tokenizer: %v", ErrEngineUnavailable, err)
	}

	id2label, err := loadLabelMap(cfg.LabelMapPath)
	if err != nil {
		if closeErr := tk.Close(); closeErr != nil {
			log.Printf("[ONNX] Warning: failed to close tokenizer during cleanup: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	numLabels := 0
	for idStr := range id2label {
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 0 {
			continue
		}
		if id >= numLabels {
			numLabels = id + 1
		}
	}
	if numLabels == 0 {
		if closeErr := tk.Close(); closeErr != nil {
			log.Printf("[ONNX] Warning: failed to close tokenizer during cleanup: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: label map has no labels", ErrEngineUnavailable)
	}
	log.Printf("[ONNX] Loaded %d labels from %s", numLabels, cfg.LabelMapPath)

	return &ONNXModelDetector{
		tokenizer: tk,
		id2label:  id2label,
		numLabels: numLabels,
		modelPath: cfg.ModelPath,
	}, nil
}

// loadLabelMap reads {"id2label": {...}} or the nested {"pii": {"id2label": {...}}} layout
func loadLabelMap(path string) (map[string]string, error) {
	// #nosec G304 - Label map path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label map: %w", err)
	}

	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
		PII      struct {
			ID2Label map[string]string `json:"id2label"`
		} `json:"pii"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse label map: %w", err)
	}
	if len(cfg.ID2Label) > 0 {
		return cfg.ID2Label, nil
	}
	return cfg.PII.ID2Label, nil
}

// GetName returns the name of this detector
func (d *ONNXModelDetector) GetName() string {
	return DetectorNameONNXModel
}

// Detect tokenizes the input, runs inference chunk by chunk and decodes BIO labels
func (d *ONNXModelDetector) Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		if err := d.initializeSession(); err != nil {
			return DetectorOutput{}, fmt.Errorf("failed to initialize session: %w", err)
		}
	}

	encoding := d.tokenizer.EncodeWithOptions(input.Text, true, tokenizers.WithReturnOffsets())

	var perChunk [][]Entity
	for _, chunk := range chunkTokens(encoding.IDs, encoding.Offsets) {
		if err := ctx.Err(); err != nil {
			return DetectorOutput{}, err
		}
		if len(chunk.tokenIDs) == 0 {
			continue
		}

		inputIDs := make([]int64, len(chunk.tokenIDs))
		attentionMask := make([]int64, len(chunk.tokenIDs))
		for i, id := range chunk.tokenIDs {
			inputIDs[i] = int64(id)
			attentionMask[i] = 1
		}
		d.updateInputTensors(inputIDs, attentionMask)

		if err := d.session.Run(); err != nil {
			return DetectorOutput{}, fmt.Errorf("failed to run inference: %w", err)
		}

		perChunk = append(perChunk, decodeTokens(input.Text, d.outputTensor.GetData(), d.numLabels, chunk.offsets, d.id2label))
	}

	entities := mergeChunkEntities(perChunk)
	for i := range entities {
		entities[i].Source = DetectorNameONNXModel
	}

	return DetectorOutput{
		Text:     input.Text,
		Entities: entities,
	}, nil
}

// chunkTokens splits a token sequence into windows of maxSeqLen tokens that
// overlap by chunkOverlap tokens. Always returns at least one chunk.
func chunkTokens(tokenIDs []uint32, offsets []tokenizers.Offset) []tokenChunk {
	n := len(tokenIDs)
	if len(offsets) < n {
		n = len(offsets)
	}
	if n <= maxSeqLen {
		return []tokenChunk{{
			tokenIDs:        tokenIDs[:n],
			offsets:         offsets[:n],
			startTokenIndex: 0,
			isFirst:         true,
			isLast:          true,
		}}
	}

	stride := maxSeqLen - chunkOverlap
	var chunks []tokenChunk
	for start := 0; start < n; start += stride {
		end := start + maxSeqLen
		if end > n {
			end = n
		}
		chunks = append(chunks, tokenChunk{
			tokenIDs:        tokenIDs[start:end],
			offsets:         offsets[start:end],
			startTokenIndex: start,
			isFirst:         start == 0,
			isLast:          end == n,
		})
		if end == n {
			break
		}
	}
	return chunks
}

// decodeTokens turns per-token logits into entities by grouping consecutive
// B-/I- tokens of the same label
func decodeTokens(text string, logits []float32, numLabels int, offsets []tokenizers.Offset, id2label map[string]string) []Entity {
	var entities []Entity
	var current *Entity

	flush := func() {
		if current != nil {
			current.Text = text[current.StartPos:current.EndPos]
			entities = append(entities, *current)
			current = nil
		}
	}

	for i, offset := range offsets {
		startIdx := i * numLabels
		endIdx := startIdx + numLabels
		if endIdx > len(logits) {
			break
		}
		label, confidence := classify(logits[startIdx:endIdx], id2label)

		start, end := safeUintToInt(offset[0]), safeUintToInt(offset[1])
		// special tokens carry empty offsets
		if start >= end || end > len(text) {
			flush()
			continue
		}
		if confidence < minTokenConfidence {
			label = "O"
		}

		isBeginning := strings.HasPrefix(label, "B-")
		isInside := strings.HasPrefix(label, "I-")
		baseLabel := NormalizeLabel(strings.TrimPrefix(strings.TrimPrefix(label, "B-"), "I-"))

		switch {
		case label == "O":
			flush()
		case isInside && current != nil && current.Label == baseLabel:
			current.EndPos = end
			current.Confidence = (current.Confidence + confidence) / 2
		case isBeginning || isInside || current == nil || current.Label != baseLabel:
			flush()
			current = &Entity{Label: baseLabel, StartPos: start, EndPos: end, Confidence: confidence}
		default:
			current.EndPos = end
			current.Confidence = (current.Confidence + confidence) / 2
		}
	}
	flush()

	return entities
}

// classify returns the arg-max label and its softmax probability
func classify(tokenLogits []float32, id2label map[string]string) (string, float64) {
	maxLogit := float64(-math.MaxFloat64)
	bestClass := 0
	for j, logit := range tokenLogits {
		if float64(logit) > maxLogit {
			maxLogit = float64(logit)
			bestClass = j
		}
	}

	var sum float64
	for _, logit := range tokenLogits {
		sum += math.Exp(float64(logit) - maxLogit)
	}

	label, exists := id2label[strconv.Itoa(bestClass)]
	if !exists {
		label = "O"
	}
	return label, 1 / sum
}

// mergeChunkEntities combines entities from overlapping chunks. Overlapping
// spans keep the higher-confidence entity; the result is sorted by position.
func mergeChunkEntities(chunks [][]Entity) []Entity {
	var all []Entity
	for _, chunk := range chunks {
		all = append(all, chunk...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].StartPos != all[j].StartPos {
			return all[i].StartPos < all[j].StartPos
		}
		return all[i].Confidence > all[j].Confidence
	})

	merged := []Entity{}
	for _, entity := range all {
		if n := len(merged); n > 0 && merged[n-1].Overlaps(entity) {
			if entity.Confidence > merged[n-1].Confidence {
				merged[n-1] = entity
			}
			continue
		}
		merged = append(merged, entity)
	}
	return merged
}

// initializeSession initializes the ONNX session and tensors
func (d *ONNXModelDetector) initializeSession() error {
	batchSize := int64(1)

	inputShape := onnxruntime.NewShape(batchSize, maxSeqLen)
	inputTensor, err := onnxruntime.NewTensor(inputShape, make([]int64, maxSeqLen))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}

	maskTensor, err := onnxruntime.NewTensor(inputShape, make([]int64, maxSeqLen))
	if err != nil {
		destroyAll(inputTensor)
		return fmt.Errorf("failed to create mask tensor: %w", err)
	}

	outputShape := onnxruntime.NewShape(batchSize, maxSeqLen, int64(d.numLabels))
	outputTensor, err := onnxruntime.NewEmptyTensor[float32](outputShape)
	if err != nil {
		destroyAll(inputTensor, maskTensor)
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := onnxruntime.NewAdvancedSession(d.modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]onnxruntime.Value{inputTensor, maskTensor},
		[]onnxruntime.Value{outputTensor},
		nil)
	if err != nil {
		destroyAll(inputTensor, maskTensor, outputTensor)
		return fmt.Errorf("failed to create session: %w", err)
	}

	d.session = session
	d.inputTensor = inputTensor
	d.maskTensor = maskTensor
	d.outputTensor = outputTensor

	return nil
}

func destroyAll(values ...onnxruntime.Value) {
	for _, v := range values {
		if err := v.Destroy(); err != nil {
			log.Printf("[ONNX] Warning: failed to destroy tensor during cleanup: %v", err)
		}
	}
}

// updateInputTensors updates the input tensors with new data
func (d *ONNXModelDetector) updateInputTensors(inputIDs, attentionMask []int64) {
	inputData := d.inputTensor.GetData()
	maskData := d.maskTensor.GetData()

	for i := range inputData {
		inputData[i] = 0
		maskData[i] = 0
	}

	copy(inputData, inputIDs)
	copy(maskData, attentionMask)
}

// Close implements the Detector interface
func (d *ONNXModelDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error

	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy session: %w", err))
		}
		d.session = nil
	}
	if d.inputTensor != nil {
		if err := d.inputTensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy input tensor: %w", err))
		}
	}
	if d.maskTensor != nil {
		if err := d.maskTensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy mask tensor: %w", err))
		}
	}
	if d.outputTensor != nil {
		if err := d.outputTensor.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy output tensor: %w", err))
		}
	}
	d.inputTensor, d.maskTensor, d.outputTensor = nil, nil, nil

	if d.tokenizer != nil {
		if err := d.tokenizer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close tokenizer: %w", err))
		}
		d.tokenizer = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
