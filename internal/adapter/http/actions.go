package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fabflow/internal/app"
	"github.com/neomorfeo/fabflow/internal/domain"
)

// TransitionResponse reports the outcome of a workflow action.
type TransitionResponse struct {
	Order       OrderResponse `json:"order"`
	Outcome     string        `json:"outcome" enum:"advanced,reverted,noop,precondition_unmet"`
	Previous    string        `json:"previous_status" doc:"Status before the action"`
	Reason      string        `json:"reason,omitempty" doc:"Why a precondition blocked the action"`
	FileMissing bool          `json:"file_missing" doc:"True when a required document is not attached"`
}

type ActionInput struct {
	UserID         int64  `header:"X-User-ID" required:"true" doc:"Acting user"`
	ID             int64  `path:"id" doc:"Order ID"`
	ExpectedStatus string `query:"expected_status" required:"false" doc:"Status the caller believes the order is in"`
}

type ProductionStepInput struct {
	UserID         int64  `header:"X-User-ID" required:"true" doc:"Acting user"`
	ID             int64  `path:"id" doc:"Order ID"`
	ExpectedStatus string `query:"expected_status" required:"true" doc:"Status the caller believes the order is in"`
}

type TransitionOutput struct {
	Body TransitionResponse
}

// ActionSlug is the URL form of an action name.
func ActionSlug(a domain.Action) string {
	return strings.ReplaceAll(string(a), "_", "-")
}

func registerActions(api huma.API, engine *app.WorkflowEngine) {
	for _, action := range domain.NamedActions() {
		slug := ActionSlug(action)
		huma.Register(api, huma.Operation{
			OperationID: slug,
			Method:      http.MethodPost,
			Path:        "/api/v1/orders/{id}/actions/" + slug,
			Summary:     "Apply " + strings.ReplaceAll(string(action), "_", " "),
			Tags:        []string{"Workflow"},
		}, func(ctx context.Context, input *ActionInput) (*TransitionOutput, error) {
			return apply(ctx, engine, input.UserID, input.ID, action, input.ExpectedStatus)
		})
	}

	steps := []struct {
		action  domain.Action
		summary string
	}{
		{domain.ActionAdvance, "Move the order one stage forward"},
		{domain.ActionRevert, "Move the order one stage back"},
	}
	for _, step := range steps {
		action := step.action
		huma.Register(api, huma.Operation{
			OperationID: string(action) + "-production",
			Method:      http.MethodPost,
			Path:        "/api/v1/orders/{id}/production/" + string(action),
			Summary:     step.summary,
			Tags:        []string{"Workflow"},
		}, func(ctx context.Context, input *ProductionStepInput) (*TransitionOutput, error) {
			return apply(ctx, engine, input.UserID, input.ID, action, input.ExpectedStatus)
		})
	}
}

func apply(ctx context.Context, engine *app.WorkflowEngine, userID, orderID int64, action domain.Action, expected string) (*TransitionOutput, error) {
	cmd := app.Command{Action: action}
	if expected != "" {
		s, err := domain.ParseStatus(expected)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		cmd.Expect = s
	}

	res, err := engine.Apply(ctx, userID, orderID, cmd)
	if err != nil {
		return nil, toHumaError(err)
	}

	return &TransitionOutput{Body: TransitionResponse{
		Order:       toOrderResponse(res.Order),
		Outcome:     string(res.Outcome),
		Previous:    string(res.Previous),
		Reason:      res.Reason,
		FileMissing: res.FileMissing,
	}}, nil
}
