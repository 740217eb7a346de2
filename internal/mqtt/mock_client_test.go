package mqtt

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// mockClient implements paho.Client for RealPublisher tests.
type mockClient struct {
	connected    bool
	publishErr   error
	timeout      bool
	published    []bufferedMsg
	disconnected bool
}

func (m *mockClient) IsConnected() bool      { return m.connected }
func (m *mockClient) IsConnectionOpen() bool { return m.connected }
func (m *mockClient) Connect() paho.Token    { return &mockToken{complete: true} }
func (m *mockClient) Disconnect(uint)        { m.disconnected = true; m.connected = false }

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	if m.timeout {
		return &mockToken{}
	}
	if m.publishErr != nil {
		return &mockToken{complete: true, err: m.publishErr}
	}
	m.published = append(m.published, bufferedMsg{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return &mockToken{complete: true}
}

func (*mockClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return &mockToken{complete: true}
}

func (*mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &mockToken{complete: true}
}

func (*mockClient) Unsubscribe(...string) paho.Token {
	return &mockToken{complete: true}
}

func (*mockClient) AddRoute(string, paho.MessageHandler) {}

func (*mockClient) OptionsReader() paho.ClientOptionsReader {
	return paho.ClientOptionsReader{}
}

type mockToken struct {
	err      error
	complete bool
}

func (t *mockToken) Wait() bool                     { return t.complete }
func (t *mockToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *mockToken) Error() error                   { return t.err }

func (*mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
