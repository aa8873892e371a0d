package ops

import (
	"context"
	"strings"

	"github.com/stablebuilds/quoter/internal/client"
	"github.com/stablebuilds/quoter/internal/errors"
)

// ListClientsInput contains parameters for the ListClients operation.
type ListClientsInput struct {
	Query  string // optional, matches name or email
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// ListClientsOutput contains the result of the ListClients operation.
type ListClientsOutput struct {
	Items      []client.Record `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

// ListClients returns clients sorted by name, optionally filtered.
func ListClients(ctx context.Context, svc *Services, input ListClientsInput) (*ListClientsOutput, error) {
	records, err := svc.Clients.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []client.Record{}
	}
	start, end, p := page(len(records), input.Limit, input.Offset)
	return &ListClientsOutput{
		Items:      records[start:end],
		Pagination: p,
	}, nil
}

// SaveClientInput contains parameters for the SaveClient operation.
// An existing client is matched by ID, email, or name plus phone.
type SaveClientInput struct {
	ID      string
	Name    string
	Type    string
	Address string
	Phone   string
	Email   string
}

// SaveClient creates or merges a client record.
func SaveClient(ctx context.Context, svc *Services, input SaveClientInput) (*client.Record, error) {
	rec, err := svc.Clients.Save(ctx, client.Record{
		ID:      input.ID,
		Name:    input.Name,
		Type:    input.Type,
		Address: input.Address,
		Phone:   input.Phone,
		Email:   input.Email,
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteClientInput contains parameters for the DeleteClient operation.
type DeleteClientInput struct {
	ID string // required
}

// DeleteClientOutput contains the result of the DeleteClient operation.
type DeleteClientOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteClient removes a client. Saved quotations keep their copy of the
// client's details.
func DeleteClient(ctx context.Context, svc *Services, input DeleteClientInput) (*DeleteClientOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	ok, err := svc.Clients.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeleteClientOutput{Deleted: ok, ID: id}, nil
}
