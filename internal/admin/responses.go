package admin

// WebSocketHealthResponse reports the state of the real-time fan-out.
type WebSocketHealthResponse struct {
	ChannelLayerConfigured bool   `json:"channel_layer_configured"`
	ChannelLayerType       string `json:"channel_layer_type"`
	ConnectionCount        int    `json:"connection_count"`
}
