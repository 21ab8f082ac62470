package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"careermate-go/internal/config"
	"careermate-go/internal/constants"
	"careermate-go/internal/logger"
	"careermate-go/internal/tracing"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// 定义Weaviate的专用tracer
var weaviateTracer = otel.Tracer("careermate-go/storage/weaviate")

// ProfilePointIDNamespace 用于生成确定性的候选人档案对象ID的专用命名空间。
// 同一候选人总是得到同一个对象ID，重复同步天然幂等。
// UUID generated via `uuidgen`
var ProfilePointIDNamespace = uuid.Must(uuid.FromString("9b2e61d4-7c4f-4f7a-b0d2-3a6e5c1f8d24"))

// CandidateProfile 推送到向量库的候选人档案。
// 文本字段参与向量化，其余字段仅作为元数据存储。
type CandidateProfile struct {
	CandidateID          uint
	Name                 string
	Email                string
	Skills               []string
	TotalYearsExperience int
	AboutMe              string
	WorkSummary          string
	EducationSummary     string
	Certificates         []string
	Projects             []string
	Awards               []string
	Languages            []string
	ProfileSummary       string
	UpdatedAt            time.Time
}

// CandidateHit 语义检索的单条命中结果
type CandidateHit struct {
	CandidateID          int      `json:"candidateId"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Skills               []string `json:"skills"`
	TotalYearsExperience int      `json:"totalYearsExperience"`
	AboutMe              string   `json:"aboutMe"`
	ProfileSummary       string   `json:"profileSummary"`
	Certainty            float64  `json:"-"`
}

// CandidateVectorStore 候选人档案向量库接口
type CandidateVectorStore interface {
	// UpsertCandidateProfile 写入或覆盖候选人档案
	UpsertCandidateProfile(ctx context.Context, profile *CandidateProfile) error

	// DeleteCandidateProfile 删除候选人档案，档案不存在不算错误
	DeleteCandidateProfile(ctx context.Context, candidateID uint) error

	// SearchCandidateProfiles 按概念文本做语义检索
	SearchCandidateProfiles(ctx context.Context, concepts []string, certainty float64, limit int) ([]CandidateHit, error)

	// GetCandidateCertainty 查询单个候选人对给定概念的语义相似度
	GetCandidateCertainty(ctx context.Context, concepts []string, candidateID uint) (float64, error)
}

// 确保Weaviate实现了CandidateVectorStore接口
var _ CandidateVectorStore = (*Weaviate)(nil)

// Weaviate 提供候选人档案的向量存储与语义检索功能
type Weaviate struct {
	endpoint   string
	className  string
	vectorizer string
	httpClient *http.Client
}

// WeaviateOption 定义Weaviate构造函数选项
type WeaviateOption func(*Weaviate)

// WithHTTPTimeout 设置HTTP客户端超时
func WithHTTPTimeout(timeout time.Duration) WeaviateOption {
	return func(w *Weaviate) {
		w.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewWeaviate 创建Weaviate客户端并确保候选人档案类存在
func NewWeaviate(cfg *config.WeaviateConfig, opts ...WeaviateOption) (*Weaviate, error) {
	if cfg == nil {
		return nil, fmt.Errorf("weaviate配置不能为空")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:8081" // 默认端点
	}

	className := cfg.ClassName
	if className == "" {
		className = constants.DefaultWeaviateClass
	}

	vectorizer := cfg.Vectorizer
	if vectorizer == "" {
		vectorizer = "text2vec-transformers"
	}

	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	w := &Weaviate{
		endpoint:   endpoint,
		className:  className,
		vectorizer: vectorizer,
		httpClient: &http.Client{Timeout: timeout},
	}

	// 应用选项
	for _, opt := range opts {
		opt(w)
	}

	// 确保类存在
	if err := w.EnsureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("确保类 '%s' 存在失败: %w", className, err)
	}

	logger.Info().Str("endpoint", endpoint).Str("class", className).Msg("成功连接到Weaviate服务器")
	return w, nil
}

// EnsureSchema 确保候选人档案类存在，不存在则创建
func (w *Weaviate) EnsureSchema(ctx context.Context) error {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.EnsureSchema",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", w.endpoint),
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "check_schema"),
		attribute.String("db.class", w.className),
	)

	url := fmt.Sprintf("%s/v1/schema/%s", w.endpoint, w.className)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("创建检查类请求失败: %w", err)
	}

	// 注入OpenTelemetry追踪上下文到HTTP请求
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := w.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("发送检查类请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 类不存在则创建
	if resp.StatusCode == http.StatusNotFound {
		span.AddEvent("class_not_found", trace.WithAttributes(
			attribute.String("action", "create_class"),
		))
		logger.Info().Str("class", w.className).Msg("类不存在，将创建新类")
		return w.createClass(ctx)
	} else if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("检查类失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return err
	}

	// 检查现有类的向量化模块是否与当前配置一致
	var classInfo struct {
		Class      string `json:"class"`
		Vectorizer string `json:"vectorizer"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("读取类信息响应失败: %w", err)
	}
	if err := json.Unmarshal(body, &classInfo); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("解析类信息失败: %w", err)
	}

	span.SetAttributes(attribute.String("class.existing_vectorizer", classInfo.Vectorizer))

	if classInfo.Vectorizer != "" && classInfo.Vectorizer != w.vectorizer {
		logger.Warn().
			Str("existing", classInfo.Vectorizer).
			Str("configured", w.vectorizer).
			Msg("现有类的向量化模块与当前配置不匹配")
		span.AddEvent("class_config_mismatch", trace.WithAttributes(
			attribute.String("expected_vectorizer", w.vectorizer),
		))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// createClass 创建候选人档案类。
// 摘要类文本字段参与向量化，标识与统计字段设置skip跳过。
func (w *Weaviate) createClass(ctx context.Context) error {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.CreateClass",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "create_class"),
		attribute.String("db.class", w.className),
		attribute.String("db.vectorizer", w.vectorizer),
	)

	skipModule := map[string]interface{}{
		w.vectorizer: map[string]interface{}{"skip": true},
	}

	classDef := map[string]interface{}{
		"class":      w.className,
		"vectorizer": w.vectorizer,
		"properties": []map[string]interface{}{
			{"name": "candidateId", "dataType": []string{"int"}, "moduleConfig": skipModule},
			{"name": "name", "dataType": []string{"text"}, "moduleConfig": skipModule},
			{"name": "email", "dataType": []string{"text"}, "moduleConfig": skipModule},
			{"name": "totalYearsExperience", "dataType": []string{"int"}, "moduleConfig": skipModule},
			{"name": "updatedAt", "dataType": []string{"date"}, "moduleConfig": skipModule},
			{"name": "skills", "dataType": []string{"text[]"}},
			{"name": "aboutMe", "dataType": []string{"text"}},
			{"name": "workSummary", "dataType": []string{"text"}},
			{"name": "educationSummary", "dataType": []string{"text"}},
			{"name": "certificates", "dataType": []string{"text[]"}},
			{"name": "projects", "dataType": []string{"text[]"}},
			{"name": "awards", "dataType": []string{"text[]"}},
			{"name": "languages", "dataType": []string{"text[]"}},
			{"name": "profileSummary", "dataType": []string{"text"}},
		},
	}

	if err := w.doRequest(ctx, http.MethodPost, "/v1/schema", classDef, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("创建类失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	logger.Info().Str("class", w.className).Str("vectorizer", w.vectorizer).Msg("已成功创建Weaviate类")
	return nil
}

// DeleteSchema 删除候选人档案类及其全部对象，类不存在不算错误
func (w *Weaviate) DeleteSchema(ctx context.Context) error {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.DeleteSchema",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "delete_schema"),
		attribute.String("db.class", w.className),
	)

	err := w.doRequestAllowNotFound(ctx, http.MethodDelete, fmt.Sprintf("/v1/schema/%s", w.className), nil, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("删除类失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// RecreateSchema 删除并重建候选人档案类。破坏性操作，所有向量数据丢失。
func (w *Weaviate) RecreateSchema(ctx context.Context) error {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.RecreateSchema",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "recreate_schema"),
		attribute.String("db.class", w.className),
	)

	if err := w.DeleteSchema(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return err
	}
	if err := w.createClass(ctx); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return err
	}

	span.SetStatus(codes.Ok, "")
	logger.Warn().Str("class", w.className).Msg("已重建Weaviate类，原有向量数据已清空")
	return nil
}

// orEmptyList nil切片序列化为[]而不是null，Weaviate对text[]属性不接受null
func orEmptyList(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// ProfileObjectID 基于候选人ID生成确定性的对象UUID
func (w *Weaviate) ProfileObjectID(candidateID uint) string {
	idSource := fmt.Sprintf("candidate:%d", candidateID)
	return uuid.NewV5(ProfilePointIDNamespace, idSource).String()
}

// UpsertCandidateProfile 写入或覆盖候选人档案。
// Weaviate对带ID的POST不支持属性级合并更新向量，这里采用先删后建：
// 两步之间短暂不可见，换来向量与属性的强一致。对象ID确定性生成，操作可重放。
func (w *Weaviate) UpsertCandidateProfile(ctx context.Context, profile *CandidateProfile) error {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.UpsertCandidateProfile",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if profile == nil {
		err := fmt.Errorf("候选人档案不能为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return err
	}

	objectID := w.ProfileObjectID(profile.CandidateID)
	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "upsert_profile"),
		attribute.String("db.class", w.className),
		attribute.Int("candidate.id", int(profile.CandidateID)),
		attribute.String("object.id", objectID),
	)

	// 先删除旧对象，不存在时忽略
	deletePath := fmt.Sprintf("/v1/objects/%s/%s", w.className, objectID)
	if err := w.doRequestAllowNotFound(ctx, http.MethodDelete, deletePath, nil, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("删除旧档案对象失败: %w", err)
	}

	object := map[string]interface{}{
		"class": w.className,
		"id":    objectID,
		"properties": map[string]interface{}{
			"candidateId":          profile.CandidateID,
			"name":                 profile.Name,
			"email":                profile.Email,
			"skills":               orEmptyList(profile.Skills),
			"totalYearsExperience": profile.TotalYearsExperience,
			"aboutMe":              profile.AboutMe,
			"workSummary":          profile.WorkSummary,
			"educationSummary":     profile.EducationSummary,
			"certificates":         orEmptyList(profile.Certificates),
			"projects":             orEmptyList(profile.Projects),
			"awards":               orEmptyList(profile.Awards),
			"languages":            orEmptyList(profile.Languages),
			"profileSummary":       profile.ProfileSummary,
			"updatedAt":            profile.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}

	if err := w.doRequest(ctx, http.MethodPost, "/v1/objects", object, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("写入档案对象失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteCandidateProfile 删除候选人档案，档案不存在不算错误
func (w *Weaviate) DeleteCandidateProfile(ctx context.Context, candidateID uint) error {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.DeleteCandidateProfile",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	objectID := w.ProfileObjectID(candidateID)
	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "delete_profile"),
		attribute.String("db.class", w.className),
		attribute.Int("candidate.id", int(candidateID)),
		attribute.String("object.id", objectID),
	)

	path := fmt.Sprintf("/v1/objects/%s/%s", w.className, objectID)
	if err := w.doRequestAllowNotFound(ctx, http.MethodDelete, path, nil, nil); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("删除档案对象失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// graphqlResponse GraphQL响应的通用外壳。
// Get下的类结果先解析到RawMessage，逐条解码以便跳过坏记录。
type graphqlResponse struct {
	Data struct {
		Get map[string]json.RawMessage `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// hitEnvelope 单条命中记录，业务属性与_additional分开解码
type hitEnvelope struct {
	CandidateID          float64  `json:"candidateId"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Skills               []string `json:"skills"`
	TotalYearsExperience float64  `json:"totalYearsExperience"`
	AboutMe              string   `json:"aboutMe"`
	ProfileSummary       string   `json:"profileSummary"`
	Additional           struct {
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

// SearchCandidateProfiles 按概念文本对候选人档案做nearText语义检索。
// 单条记录解码失败时跳过该条并继续，不让一条坏数据拖垮整个召回。
func (w *Weaviate) SearchCandidateProfiles(ctx context.Context, concepts []string, certainty float64, limit int) ([]CandidateHit, error) {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.SearchCandidateProfiles",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "near_text_search"),
		attribute.String("db.class", w.className),
		attribute.Int("search.limit", limit),
		attribute.Float64("search.certainty", certainty),
		attribute.Int("search.concepts.count", len(concepts)),
	)

	if len(concepts) == 0 {
		span.SetStatus(codes.Ok, "no concepts to search")
		return []CandidateHit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	conceptsJSON, err := json.Marshal(concepts)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, fmt.Errorf("序列化检索概念失败: %w", err)
	}

	query := fmt.Sprintf(`{
  Get {
    %s(
      nearText: {concepts: %s, certainty: %.4f}
      limit: %d
    ) {
      candidateId
      name
      email
      skills
      totalYearsExperience
      aboutMe
      profileSummary
      _additional { certainty }
    }
  }
}`, w.className, string(conceptsJSON), certainty, limit)

	raw, err := w.runGraphQL(ctx, query)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	hits := w.decodeHits(ctx, raw)
	span.SetAttributes(attribute.Int("search.results.count", len(hits)))
	span.SetStatus(codes.Ok, "")
	return hits, nil
}

// GetCandidateCertainty 查询单个候选人档案对给定概念的语义相似度。
// 候选人档案不在向量库中时返回ErrNotFound。
func (w *Weaviate) GetCandidateCertainty(ctx context.Context, concepts []string, candidateID uint) (float64, error) {
	ctx, span := weaviateTracer.Start(ctx, "Weaviate.GetCandidateCertainty",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", "near_text_single"),
		attribute.String("db.class", w.className),
		attribute.Int("candidate.id", int(candidateID)),
	)

	if len(concepts) == 0 {
		span.SetStatus(codes.Ok, "no concepts")
		return 0, ErrNotFound
	}

	conceptsJSON, err := json.Marshal(concepts)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return 0, fmt.Errorf("序列化检索概念失败: %w", err)
	}

	query := fmt.Sprintf(`{
  Get {
    %s(
      nearText: {concepts: %s}
      where: {path: ["candidateId"], operator: Equal, valueInt: %d}
      limit: 1
    ) {
      candidateId
      _additional { certainty }
    }
  }
}`, w.className, string(conceptsJSON), candidateID)

	raw, err := w.runGraphQL(ctx, query)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return 0, err
	}

	var envelopes []hitEnvelope
	if err := json.Unmarshal(raw, &envelopes); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return 0, fmt.Errorf("解析相似度结果失败: %w", err)
	}
	if len(envelopes) == 0 {
		span.SetStatus(codes.Ok, "profile not found")
		return 0, ErrNotFound
	}

	certainty := envelopes[0].Additional.Certainty
	span.SetAttributes(attribute.Float64("search.certainty", certainty))
	span.SetStatus(codes.Ok, "")
	return certainty, nil
}

// runGraphQL 执行GraphQL查询并返回目标类的原始结果数组
func (w *Weaviate) runGraphQL(ctx context.Context, query string) (json.RawMessage, error) {
	reqBody := map[string]interface{}{"query": query}

	var resp graphqlResponse
	if err := w.doRequest(ctx, http.MethodPost, "/v1/graphql", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql查询失败: %s", resp.Errors[0].Message)
	}

	raw, ok := resp.Data.Get[w.className]
	if !ok || len(raw) == 0 {
		return json.RawMessage("[]"), nil
	}
	return raw, nil
}

// decodeHits 逐条解码命中记录，坏记录跳过并记日志
func (w *Weaviate) decodeHits(ctx context.Context, raw json.RawMessage) []CandidateHit {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("解析检索结果数组失败")
		return []CandidateHit{}
	}

	hits := make([]CandidateHit, 0, len(records))
	for i, record := range records {
		var env hitEnvelope
		if err := json.Unmarshal(record, &env); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int("index", i).Msg("跳过无法解析的检索命中记录")
			continue
		}
		if env.CandidateID <= 0 {
			logger.Ctx(ctx).Warn().Int("index", i).Msg("跳过缺少candidateId的检索命中记录")
			continue
		}
		hits = append(hits, CandidateHit{
			CandidateID:          int(env.CandidateID),
			Name:                 env.Name,
			Email:                env.Email,
			Skills:               env.Skills,
			TotalYearsExperience: int(env.TotalYearsExperience),
			AboutMe:              env.AboutMe,
			ProfileSummary:       env.ProfileSummary,
			Certainty:            env.Additional.Certainty,
		})
	}
	return hits
}

// doRequest 执行HTTP请求并解析JSON响应
func (w *Weaviate) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return w.request(ctx, method, path, body, result, false)
}

// doRequestAllowNotFound 与doRequest相同，但404视为成功
func (w *Weaviate) doRequestAllowNotFound(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return w.request(ctx, method, path, body, result, true)
}

func (w *Weaviate) request(ctx context.Context, method, path string, body interface{}, result interface{}, allowNotFound bool) error {
	// 创建请求和span
	ctx, span := weaviateTracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// 设置span属性
	span.SetAttributes(
		attribute.String("net.peer.name", w.endpoint),
		attribute.String("db.system", "weaviate"),
		attribute.String("db.operation", path),
	)

	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}

		req, err = http.NewRequestWithContext(ctx, method, w.endpoint+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		span.SetAttributes(attribute.Int("http.request.body.size", len(jsonBody)))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, w.endpoint+path, nil)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	// 注入trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	// 执行请求
	resp, err := w.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}
	defer resp.Body.Close()

	// 设置状态码属性
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	// 读取响应
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}

	span.SetAttributes(attribute.Int("http.response.body.size", len(respBody)))

	// 检查状态码
	if resp.StatusCode == http.StatusNotFound && allowNotFound {
		span.SetStatus(codes.Ok, "not found tolerated")
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("weaviate API error: status=%d, body=%s", resp.StatusCode, string(respBody))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return err
	}

	// 解析结果
	if result != nil && len(respBody) > 0 {
		if err = json.Unmarshal(respBody, result); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
