package model

import (
	"context"
	"encoding/json"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime"
	"github.com/aws/aws-sdk-go/service/sagemakerruntime/sagemakerruntimeiface"
)

const contentTypeJSON = "application/json"

type endpointRequest struct {
	Instances []endpointInstance `json:"instances"`
}

type endpointInstance struct {
	Features []float64 `json:"features"`
}

type endpointResponse struct {
	Predictions []struct {
		Label string `json:"label"`
	} `json:"predictions"`
}

// Endpoint is a classifier hosted behind a SageMaker runtime endpoint.
type Endpoint struct {
	api      sagemakerruntimeiface.SageMakerRuntimeAPI
	name     string
	features []string
}

func NewEndpoint(api sagemakerruntimeiface.SageMakerRuntimeAPI, name string, features []string) *Endpoint {
	return &Endpoint{
		api:      api,
		name:     name,
		features: append([]string(nil), features...),
	}
}

func (e *Endpoint) Features() []string {
	return append([]string(nil), e.features...)
}

func (e *Endpoint) Predict(ctx context.Context, rows [][]float64) ([]string, error) {
	errFactory := errors.New()

	req := endpointRequest{Instances: make([]endpointInstance, len(rows))}
	for i, row := range rows {
		if len(e.features) > 0 && len(row) != len(e.features) {
			return nil, errFactory.WithData(ErrShapeMismatch, struct {
				Row  int
				Got  int
				Want int
			}{
				Row:  i,
				Got:  len(row),
				Want: len(e.features),
			})
		}
		req.Instances[i] = endpointInstance{Features: row}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrInvokeEndpoint, err)
	}

	out, err := e.api.InvokeEndpointWithContext(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(e.name),
		Body:         payload,
		ContentType:  aws.String(contentTypeJSON),
		Accept:       aws.String(contentTypeJSON),
	})
	if err != nil {
		return nil, errFactory.Wrap(ErrInvokeEndpoint, err)
	}

	var resp endpointResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, errFactory.Wrap(ErrBadResponse, err)
	}
	if len(resp.Predictions) != len(rows) {
		return nil, errFactory.WithData(ErrBadResponse, struct {
			Got  int
			Want int
		}{
			Got:  len(resp.Predictions),
			Want: len(rows),
		})
	}

	labels := make([]string, len(resp.Predictions))
	for i, p := range resp.Predictions {
		labels[i] = p.Label
	}
	return labels, nil
}
