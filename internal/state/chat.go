package state

import "github.com/iotchat/iotchat/internal/models"

// ChatState is the room directory region: loaded chats, broker
// subscriptions and the compose draft.
type ChatState struct {
	MessageDraft     string
	SubscribedTopics []string
	AllChats         []models.Chat
	LoadingChats     bool
	CreatingChat     bool
	FetchingUser     bool
	Error            string
}

var initialChat = ChatState{}

// Subscribed reports whether topic is already recorded.
func (s ChatState) Subscribed(topic string) bool {
	for _, t := range s.SubscribedTopics {
		if t == topic {
			return true
		}
	}
	return false
}

func reduceChat(s ChatState, e Event) ChatState {
	switch e := e.(type) {
	case MessageDraftChanged:
		s.MessageDraft = e.Text
		return s
	case SubscribedTopicAdded:
		if s.Subscribed(e.Topic) {
			return s
		}
		topics := make([]string, len(s.SubscribedTopics), len(s.SubscribedTopics)+1)
		copy(topics, s.SubscribedTopics)
		s.SubscribedTopics = append(topics, e.Topic)
		return s
	case SubscribedTopicsCleared:
		s.SubscribedTopics = nil
		return s
	case ChatsFetching:
		s.LoadingChats = true
		return s
	case ChatsReceived:
		s.AllChats = e.Chats
		s.LoadingChats = false
		return s
	case ChatCreating:
		s.CreatingChat = true
		s.Error = ""
		return s
	case ChatAdded:
		chats := make([]models.Chat, len(s.AllChats), len(s.AllChats)+1)
		copy(chats, s.AllChats)
		s.AllChats = append(chats, e.Chat)
		s.CreatingChat = false
		return s
	case ChatFailed:
		s.Error = e.Error
		s.CreatingChat = false
		s.LoadingChats = false
		return s
	case UserFetching:
		s.FetchingUser = true
		return s
	case UserLearned:
		s.FetchingUser = false
		return s
	case Logout:
		return initialChat
	default:
		return s
	}
}
