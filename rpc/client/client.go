package client

import (
	"fmt"

	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/lib/log"
	"github.com/ValentinKolb/tstore/rpc/codec"
	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/wire"
)

var clientLogger = log.Get("rpc")

// Client mirrors core.TransientStore's operation surface over the wire,
// against one named store on the remote server.
type Client struct {
	store     string
	transport transport.ClientTransport
	codec     codec.Codec
}

// New connects a client transport per cfg and returns a Client bound to
// storeName on the remote server.
func New(storeName string, cfg transport.ClientConfig, t transport.ClientTransport, c codec.Codec) (*Client, error) {
	if err := t.Connect(cfg); err != nil {
		return nil, err
	}
	return &Client{store: storeName, transport: t, codec: c}, nil
}

// Close tears down the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Create sends a Create request.
func (c *Client) Create(key []byte) (bool, error) {
	resp, err := c.invoke(wire.NewCreateRequest(c.store, key))
	if err != nil {
		return false, err
	}
	return resp.Status == core.ErrNone, nil
}

// Exists sends an Exists request.
func (c *Client) Exists(key []byte) (core.ExistsResult, error) {
	resp, err := c.invoke(wire.NewExistsRequest(c.store, key))
	if err != nil {
		return core.ExistsResult{}, err
	}
	return core.ExistsResult{Exists: resp.Exists, SecondsSince: resp.SecondsSince}, nil
}

// Get sends a Get request.
func (c *Client) Get(key []byte, requests []core.PropRequest, maxWaitSeconds uint32, force bool) (core.GetResult, error) {
	resp, err := c.invoke(wire.NewGetRequest(c.store, key, requests, maxWaitSeconds, force))
	if err != nil {
		return core.GetResult{}, err
	}
	return core.GetResult{Status: resp.Status, Values: resp.Results}, nil
}

// Put sends a Put request.
func (c *Client) Put(key []byte, values []core.PropEntry) (core.ErrorCode, error) {
	resp, err := c.invoke(wire.NewPutRequest(c.store, key, values))
	if err != nil {
		return core.ErrGeneral, err
	}
	return resp.Status, nil
}

// Delete sends a Delete request.
func (c *Client) Delete(key []byte, maxWaitSeconds uint32, force bool) (core.DeleteResult, error) {
	resp, err := c.invoke(wire.NewDeleteRequest(c.store, key, maxWaitSeconds, force))
	if err != nil {
		return core.DeleteResult{}, err
	}
	return core.DeleteResult{Status: resp.Status, Deleted: resp.Deleted}, nil
}

// Remove sends a Remove request.
func (c *Client) Remove(key []byte, maxWaitSeconds uint32, force bool) (core.RemoveResult, error) {
	resp, err := c.invoke(wire.NewRemoveRequest(c.store, key, maxWaitSeconds, force))
	if err != nil {
		return core.RemoveResult{}, err
	}
	return core.RemoveResult{Status: resp.Status, Values: resp.Results}, nil
}

// Clear sends a Clear request.
func (c *Client) Clear() error {
	_, err := c.invoke(wire.NewClearRequest(c.store))
	return err
}

// invoke encodes req, sends it, decodes the response, and surfaces an
// in-band ErrGeneral status as a Go error.
func (c *Client) invoke(req *wire.Message) (*wire.Message, error) {
	reqBytes, err := c.codec.Encode(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := c.transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	var resp wire.Message
	if err := c.codec.Decode(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("rpc client: decode response: %w", err)
	}

	if resp.Status == core.ErrGeneral {
		return nil, fmt.Errorf("rpc client: %s", string(resp.Key))
	}

	if resp.Op != req.Op {
		clientLogger.Warningf("response op %s did not match request op %s", resp.Op, req.Op)
	}

	return &resp, nil
}
