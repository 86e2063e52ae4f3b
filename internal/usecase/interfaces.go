package usecase

// ListNotifier pushes conversation-list update frames to a user's connected
// clients. Implemented by the websocket manager; nil-safe at the call sites so
// the engine runs without a push transport in tests.
type ListNotifier interface {
	NotifyUser(userID string, payload []byte)
}
