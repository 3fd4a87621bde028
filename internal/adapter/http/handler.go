package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fabflow/internal/app"
	"github.com/neomorfeo/fabflow/internal/domain"
)

const timeFormat = time.RFC3339

// AttachmentsResponse reports which documents are attached to an order.
type AttachmentsResponse struct {
	Contract bool `json:"contract"`
	Invoice  bool `json:"invoice"`
	GDS      bool `json:"gds"`
}

// OrderResponse is the API representation of an order.
type OrderResponse struct {
	ID            int64               `json:"id" doc:"Unique identifier"`
	Number        string              `json:"number" doc:"Human-facing order number, F + date + daily sequence"`
	Status        string              `json:"status" doc:"Workflow status code"`
	StatusLabel   string              `json:"status_label" doc:"Human-readable status"`
	CreatorID     int64               `json:"creator_id" doc:"Profile that placed the order"`
	PlatformCode  string              `json:"platform_code" doc:"Production platform"`
	MaskName      string              `json:"mask_name"`
	Paid          bool                `json:"paid"`
	ContractReady bool                `json:"contract_ready"`
	Attachments   AttachmentsResponse `json:"attachments"`
	Version       int64               `json:"version" doc:"Optimistic concurrency version"`
	CreatedAt     string              `json:"created_at" doc:"Creation timestamp (RFC 3339)"`
	UpdatedAt     string              `json:"updated_at" doc:"Last update timestamp (RFC 3339)"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		Status:        string(o.Status),
		StatusLabel:   o.Status.Label(),
		CreatorID:     o.CreatorID,
		PlatformCode:  o.PlatformCode,
		MaskName:      o.MaskName,
		Paid:          o.Paid,
		ContractReady: o.ContractReady,
		Attachments: AttachmentsResponse{
			Contract: o.Attachments.Contract,
			Invoice:  o.Attachments.Invoice,
			GDS:      o.Attachments.GDS,
		},
		Version:   o.Version,
		CreatedAt: o.CreatedAt.Format(timeFormat),
		UpdatedAt: o.UpdatedAt.Format(timeFormat),
	}
}

// MessageResponse is one chat line of an order.
type MessageResponse struct {
	ID        string `json:"id"`
	ProfileID int64  `json:"profile_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// --- Create Order ---

type CreateOrderInput struct {
	UserID int64 `header:"X-User-ID" required:"true" doc:"Acting user"`
	Body   struct {
		PlatformCode string `json:"platform_code" minLength:"1" maxLength:"32" doc:"Platform that will produce the order"`
		MaskName     string `json:"mask_name,omitempty" maxLength:"255" doc:"Topology / mask name"`
	}
}

type OrderOutput struct {
	Body OrderResponse
}

// --- Get Order ---

type GetOrderInput struct {
	UserID int64 `header:"X-User-ID" required:"true" doc:"Acting user"`
	ID     int64 `path:"id" doc:"Order ID"`
}

// --- List Orders ---

type ListOrdersInput struct {
	UserID int64  `header:"X-User-ID" required:"true" doc:"Acting user"`
	Status string `query:"status" required:"false" doc:"Filter by status code"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"0" maximum:"200" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListOrdersOutput struct {
	Body []OrderResponse
}

// --- Attachments ---

type SetAttachmentInput struct {
	UserID int64  `header:"X-User-ID" required:"true" doc:"Acting user"`
	ID     int64  `path:"id" doc:"Order ID"`
	Kind   string `path:"kind" enum:"contract,invoice,gds" doc:"Document kind"`
	Body   struct {
		Present bool `json:"present" doc:"Whether the document is attached"`
	}
}

// --- Messages ---

type ListMessagesOutput struct {
	Body []MessageResponse
}

// Register adds all order API routes to the Huma API.
func Register(api huma.API, orders *app.OrderService, engine *app.WorkflowEngine) {
	huma.Register(api, huma.Operation{
		OperationID: "create-order",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders",
		Summary:     "Place a new order",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *CreateOrderInput) (*OrderOutput, error) {
		order, err := orders.Create(ctx, input.UserID, input.Body.PlatformCode, input.Body.MaskName)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders/{id}",
		Summary:     "Get an order by ID",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *GetOrderInput) (*OrderOutput, error) {
		order, err := orders.Get(ctx, input.UserID, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders",
		Summary:     "List orders visible to the caller",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *ListOrdersInput) (*ListOrdersOutput, error) {
		filter := domain.ListFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.Status != "" {
			s, err := domain.ParseStatus(input.Status)
			if err != nil {
				return nil, huma.Error422UnprocessableEntity(err.Error())
			}
			filter.Status = &s
		}

		list, err := orders.List(ctx, input.UserID, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]OrderResponse, len(list))
		for i, o := range list {
			resp[i] = toOrderResponse(o)
		}
		return &ListOrdersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-order-attachment",
		Method:      http.MethodPut,
		Path:        "/api/v1/orders/{id}/attachments/{kind}",
		Summary:     "Record whether a document is attached",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *SetAttachmentInput) (*OrderOutput, error) {
		kind, err := domain.ParseAttachmentKind(input.Kind)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		order, err := orders.SetAttachment(ctx, input.UserID, input.ID, kind, input.Body.Present)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-contract-ready",
		Method:      http.MethodPut,
		Path:        "/api/v1/orders/{id}/contract-ready",
		Summary:     "Flag the contract as prepared",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *GetOrderInput) (*OrderOutput, error) {
		order, err := orders.MarkContractReady(ctx, input.UserID, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OrderOutput{Body: toOrderResponse(order)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-order-messages",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders/{id}/messages",
		Summary:     "Read the order chat",
		Tags:        []string{"Orders"},
	}, func(ctx context.Context, input *GetOrderInput) (*ListMessagesOutput, error) {
		msgs, err := orders.Messages(ctx, input.UserID, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]MessageResponse, len(msgs))
		for i, m := range msgs {
			resp[i] = MessageResponse{
				ID:        m.ID,
				ProfileID: m.ProfileID,
				Text:      m.Text,
				CreatedAt: m.CreatedAt.Format(timeFormat),
			}
		}
		return &ListMessagesOutput{Body: resp}, nil
	})

	registerActions(api, engine)
}
