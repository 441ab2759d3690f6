// Package mup wires the ministry-of-interior services onto the RPC command
// table consumed by the gateway.
package mup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"egov/internal/mup/citizen"
	"egov/internal/mup/document"
	"egov/internal/mup/infraction"
	"egov/internal/mup/request"
	"egov/internal/rpc"
	"egov/pkg/faults"
)

// Services bundles everything the command table dispatches into.
type Services struct {
	Citizens    *citizen.Service
	Requests    *request.Service
	Infractions *infraction.Service
	Documents   *document.Service
}

type idPayload struct {
	ID string `json:"id"`
}

type jmbgPayload struct {
	JMBG string `json:"jmbg"`
}

type requestIDPayload struct {
	RequestID string `json:"requestId"`
}

type citizenIDPayload struct {
	CitizenID string `json:"citizenId"`
}

func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, faults.Wrap(err, faults.KindBadRequest, "malformed payload")
	}
	return v, nil
}

// RegisterCommands installs every mup command on the RPC server. Command
// names are stable wire identifiers shared with the gateway.
func RegisterCommands(srv *rpc.Server, svc Services) {
	registerCitizenCommands(srv, svc.Citizens)
	registerRequestCommands(srv, svc.Requests)
	registerInfractionCommands(srv, svc.Infractions)
	registerDocumentCommands(srv, svc.Documents)
}

func registerCitizenCommands(srv *rpc.Server, citizens *citizen.Service) {
	srv.Handle("createCitizen", func(ctx context.Context, payload json.RawMessage) (any, error) {
		dto, err := decode[citizen.CreateDTO](payload)
		if err != nil {
			return nil, err
		}
		return citizens.Create(ctx, dto)
	})
	srv.Handle("findAllCitizens", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return citizens.List(ctx)
	})
	srv.Handle("findOneCitizen", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return citizens.Get(ctx, p.ID)
	})
	srv.Handle("findCitizenByJmbg", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[jmbgPayload](payload)
		if err != nil {
			return nil, err
		}
		return citizens.GetByJMBG(ctx, p.JMBG)
	})
	srv.Handle("getCitizenCredentials", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[jmbgPayload](payload)
		if err != nil {
			return nil, err
		}
		return citizens.CredentialsByJMBG(ctx, p.JMBG)
	})
	srv.Handle("updateCitizen", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID   string            `json:"id"`
			Data citizen.UpdateDTO `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return citizens.Update(ctx, p.ID, p.Data)
	})
	srv.Handle("removeCitizen", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, citizens.Remove(ctx, p.ID)
	})
}

func registerRequestCommands(srv *rpc.Server, requests *request.Service) {
	srv.Handle("createRequest", func(ctx context.Context, payload json.RawMessage) (any, error) {
		dto, err := decode[request.CreateDTO](payload)
		if err != nil {
			return nil, err
		}
		return requests.Create(ctx, dto)
	})
	srv.Handle("findAllRequests", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return requests.List(ctx, request.Filter{})
	})
	srv.Handle("findAllRequestsWithFilter", func(ctx context.Context, payload json.RawMessage) (any, error) {
		f, err := decode[request.Filter](payload)
		if err != nil {
			return nil, err
		}
		return requests.List(ctx, f)
	})
	srv.Handle("findRequestsByCitizenId", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[citizenIDPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.ListByCitizen(ctx, p.CitizenID)
	})
	srv.Handle("findOneRequest", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.Get(ctx, p.ID)
	})
	srv.Handle("updateRequestStatus", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID   string                  `json:"id"`
			Data request.UpdateStatusDTO `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.UpdateStatus(ctx, p.ID, p.Data)
	})
	srv.Handle("removeRequest", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, requests.Remove(ctx, p.ID)
	})

	srv.Handle("createAppointment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			RequestID string                  `json:"requestId"`
			Data      request.AppointmentSpec `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.ScheduleAppointment(ctx, p.RequestID, p.Data)
	})
	srv.Handle("findAllAppointments", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return requests.ListAppointments(ctx)
	})
	srv.Handle("findOneAppointment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.GetAppointment(ctx, p.ID)
	})
	srv.Handle("findAppointmentByRequestId", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[requestIDPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.GetAppointmentByRequest(ctx, p.RequestID)
	})
	srv.Handle("updateAppointment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID   string                  `json:"id"`
			Data request.AppointmentSpec `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.UpdateAppointment(ctx, p.ID, p.Data)
	})
	srv.Handle("removeAppointment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, requests.RemoveAppointment(ctx, p.ID)
	})

	srv.Handle("createPayment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			RequestID string              `json:"requestId"`
			Data      request.PaymentSpec `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.RecordPayment(ctx, p.RequestID, p.Data)
	})
	srv.Handle("findAllPayments", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return requests.ListPayments(ctx)
	})
	srv.Handle("findOnePayment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.GetPayment(ctx, p.ID)
	})
	srv.Handle("findPaymentByRequestId", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[requestIDPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.GetPaymentByRequest(ctx, p.RequestID)
	})
	srv.Handle("updatePayment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID   string              `json:"id"`
			Data request.PaymentSpec `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.UpdatePayment(ctx, p.ID, p.Data)
	})
	srv.Handle("removePayment", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, requests.RemovePayment(ctx, p.ID)
	})

	srv.Handle("createDocument", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			RequestID string               `json:"requestId"`
			Data      request.DocumentSpec `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.AttachDocument(ctx, p.RequestID, p.Data)
	})
	srv.Handle("findAllDocuments", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return requests.ListDocuments(ctx)
	})
	srv.Handle("findOneDocument", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.GetDocument(ctx, p.ID)
	})
	srv.Handle("findDocumentByRequestId", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[requestIDPayload](payload)
		if err != nil {
			return nil, err
		}
		return requests.GetDocumentByRequest(ctx, p.RequestID)
	})
	srv.Handle("updateDocument", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID   string               `json:"id"`
			Data request.DocumentSpec `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return requests.UpdateDocument(ctx, p.ID, p.Data)
	})
	srv.Handle("removeDocument", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, requests.RemoveDocument(ctx, p.ID)
	})
}

// filePayload carries document bytes over the JSON link. Data rides as
// base64, which is acceptable for administrative documents of a few MB.
type filePayload struct {
	RequestID string `json:"requestId"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	Data      []byte `json:"data"`
}

// FileResult is the wire form of a downloaded document.
type FileResult struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Data     []byte `json:"data"`
}

type fileKeyPayload struct {
	FileURL string `json:"fileUrl"`
}

func registerDocumentCommands(srv *rpc.Server, documents *document.Service) {
	srv.Handle("uploadDocument", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[filePayload](payload)
		if err != nil {
			return nil, err
		}
		return documents.Upload(ctx, document.UploadDTO{
			RequestID:   p.RequestID,
			Name:        p.Name,
			Type:        p.Type,
			FileName:    p.FileName,
			Size:        int64(len(p.Data)),
			ContentType: p.MimeType,
			Body:        bytes.NewReader(p.Data),
		})
	})
	srv.Handle("getDocumentFile", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[fileKeyPayload](payload)
		if err != nil {
			return nil, err
		}
		obj, name, err := documents.File(ctx, p.FileURL)
		if err != nil {
			return nil, err
		}
		defer obj.Reader.Close()
		data, err := io.ReadAll(obj.Reader)
		if err != nil {
			return nil, err
		}
		return FileResult{
			FileName: name,
			MimeType: obj.ContentType,
			Size:     obj.Size,
			Data:     data,
		}, nil
	})
	srv.Handle("getDocumentUrl", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[fileKeyPayload](payload)
		if err != nil {
			return nil, err
		}
		u, err := documents.URL(ctx, p.FileURL)
		if err != nil {
			return nil, err
		}
		return map[string]string{"url": u}, nil
	})
	srv.Handle("deleteDocumentFile", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[fileKeyPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, documents.DeleteFile(ctx, p.FileURL)
	})
	srv.Handle("getDocsIssued", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			From time.Time `json:"from"`
			To   time.Time `json:"to"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return documents.CountIssued(ctx, p.From, p.To)
	})
}

func registerInfractionCommands(srv *rpc.Server, infractions *infraction.Service) {
	srv.Handle("createInfraction", func(ctx context.Context, payload json.RawMessage) (any, error) {
		dto, err := decode[infraction.CreateDTO](payload)
		if err != nil {
			return nil, err
		}
		return infractions.Create(ctx, dto)
	})
	srv.Handle("findAllInfractions", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return infractions.List(ctx)
	})
	srv.Handle("findOneInfraction", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return infractions.Get(ctx, p.ID)
	})
	srv.Handle("updateInfraction", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			ID   string               `json:"id"`
			Data infraction.UpdateDTO `json:"data"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return infractions.Update(ctx, p.ID, p.Data)
	})
	srv.Handle("removeInfraction", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[idPayload](payload)
		if err != nil {
			return nil, err
		}
		return nil, infractions.Remove(ctx, p.ID)
	})
	srv.Handle("getDuiStatistics", func(ctx context.Context, payload json.RawMessage) (any, error) {
		p, err := decode[struct {
			Year int `json:"year"`
		}](payload)
		if err != nil {
			return nil, err
		}
		return infractions.DuiStatistics(ctx, p.Year)
	})
}
