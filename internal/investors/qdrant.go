package investors

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantConfig describes the connection to the investor vector index.
type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

// Qdrant implements both Index and Store against a qdrant collection over
// grpc. The collection is populated by an external ingestion job; this
// client never writes.
type Qdrant struct {
	conn       *grpc.ClientConn
	collection string
	logger     *zap.Logger
}

func NewQdrant(config QdrantConfig, logger *zap.Logger) (*Qdrant, error) {
	if strings.TrimSpace(config.Collection) == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}

	url := config.Host + ":" + config.Port
	conn, err := grpc.NewClient(url, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", url, err)
	}

	return &Qdrant{conn: conn, collection: config.Collection, logger: logger}, nil
}

// SearchSimilar queries the collection for the nearest neighbors of the
// provided vector among records whose dm_open_status payload field equals
// "open". Only scalar equality is supported by the index filter, so any
// set-membership filtering happens downstream.
func (q *Qdrant) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	client := qdrant.NewPointsClient(q.conn)

	resp, err := client.Search(ctx, &qdrant.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "dm_open_status",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: string(DMOpen)},
						},
					},
				},
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	hits := make([]Hit, 0, len(resp.Result))
	for _, point := range resp.Result {
		id := pointIDString(point.Id)
		if id == "" {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: point.Score})
	}

	q.logger.Debug("similarity search done",
		zap.String("collection", q.collection),
		zap.Int("limit", limit),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// GetByID fetches the full record for a previously returned hit. Returns
// (nil, nil) when the point no longer exists.
func (q *Qdrant) GetByID(ctx context.Context, id string) (*Record, error) {
	client := qdrant.NewPointsClient(q.conn)

	resp, err := client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get point %s: %w", id, err)
	}

	if len(resp.Result) == 0 {
		return nil, nil
	}

	return recordFromPayload(id, resp.Result[0].Payload), nil
}

func pointID(id string) *qdrant.PointId {
	if _, err := uuid.Parse(id); err == nil {
		return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}
	}
	num, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}
	}
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: num}}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func recordFromPayload(id string, payload map[string]*qdrant.Value) *Record {
	record := &Record{
		ID:            id,
		Name:          payloadString(payload, "name"),
		Firm:          payloadString(payload, "firm"),
		Position:      payloadString(payload, "position"),
		Industries:    payloadStrings(payload, "industries"),
		Thesis:        payloadString(payload, "thesis"),
		MinInvestment: payloadString(payload, "min_investment"),
		TwitterURL:    payloadString(payload, "twitter_url"),
		Username:      payloadString(payload, "username"),
	}

	switch DMStatus(payloadString(payload, "dm_open_status")) {
	case DMOpen:
		record.DMOpenStatus = DMOpen
	case DMClosed:
		record.DMOpenStatus = DMClosed
	default:
		record.DMOpenStatus = DMUnknown
	}

	return record
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	if s := value.GetStringValue(); s != "" {
		return s
	}
	if value.GetIntegerValue() != 0 {
		return strconv.FormatInt(value.GetIntegerValue(), 10)
	}
	return ""
}

func payloadStrings(payload map[string]*qdrant.Value, key string) []string {
	value, ok := payload[key]
	if !ok || value == nil {
		return nil
	}
	list := value.GetListValue()
	if list == nil {
		return nil
	}
	items := make([]string, 0, len(list.Values))
	for _, item := range list.Values {
		if s := item.GetStringValue(); s != "" {
			items = append(items, s)
		}
	}
	return items
}
