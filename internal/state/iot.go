package state

import "github.com/iotchat/iotchat/internal/policy"

// IoTState is the broker connection region. The four grant flags transition
// false to true only. DeviceConnected and MessageHandlerAttached describe
// the underlying connection and survive a Logout unchanged.
type IoTState struct {
	ConnectPolicy          bool
	PublicPublishPolicy    bool
	PublicSubscribePolicy  bool
	PublicReceivePolicy    bool
	DeviceConnected        bool
	MessageHandlerAttached bool
}

var initialIoT = IoTState{}

// PolicyAttached reports whether the flag for p is set.
func (s IoTState) PolicyAttached(p policy.Policy) bool {
	switch p {
	case policy.Connect:
		return s.ConnectPolicy
	case policy.PublicPublish:
		return s.PublicPublishPolicy
	case policy.PublicSubscribe:
		return s.PublicSubscribePolicy
	case policy.PublicReceive:
		return s.PublicReceivePolicy
	}
	return false
}

func reduceIoT(s IoTState, e Event) IoTState {
	switch e := e.(type) {
	case PolicyAttached:
		switch e.Policy {
		case policy.Connect:
			s.ConnectPolicy = true
		case policy.PublicPublish:
			s.PublicPublishPolicy = true
		case policy.PublicSubscribe:
			s.PublicSubscribePolicy = true
		case policy.PublicReceive:
			s.PublicReceivePolicy = true
		}
		return s
	case DeviceConnectedChanged:
		s.DeviceConnected = e.Connected
		return s
	case MessageHandlerAttached:
		s.MessageHandlerAttached = e.Attached
		return s
	case Logout:
		// Keep the connection flags so the same broker client is reused on
		// the next login.
		next := initialIoT
		next.DeviceConnected = s.DeviceConnected
		next.MessageHandlerAttached = s.MessageHandlerAttached
		return next
	default:
		return s
	}
}
