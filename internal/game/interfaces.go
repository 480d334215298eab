package game

// NetworkSession is the transport seam between the coordinator and the
// websocket layer. Tests substitute scripted sessions.
type NetworkSession interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}
