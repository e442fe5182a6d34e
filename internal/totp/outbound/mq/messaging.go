package mq

import (
	"context"
	"encoding/json"

	"github.com/sidiqpratomo/totpadmin/internal/pkg/instrument"
	"github.com/sidiqpratomo/totpadmin/internal/pkg/messaging"
	"github.com/sidiqpratomo/totpadmin/internal/shared/event"
	"github.com/sidiqpratomo/totpadmin/internal/totp/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCredentialRegistered(ctx context.Context, msg usecase.CredentialRegisteredEvent) error {
	ctx, span := m.ins.Tracer("totp.outbound.mq").Start(ctx, "PublishCredentialRegistered")
	defer span.End()

	body, err := json.Marshal(event.CredentialRegisteredMessage{
		Realm:        msg.Realm,
		UserID:       msg.UserID,
		CredentialID: msg.CredentialID,
		DeviceName:   msg.DeviceName,
		Overwritten:  msg.Overwritten,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.TOTPCredentialRegisteredDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
