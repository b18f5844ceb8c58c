package ws

import (
	"reflect"
)

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all client event types
	RegisterType(&SetupEvent{})
	RegisterType(&JoinChatEvent{})
	RegisterType(&JoinNewGroupChatEvent{})
	RegisterType(&TypingEvent{})
	RegisterType(&TypingOffEvent{})
	RegisterType(&SendMessageEvent{})
}

func RegisterType(event Event) {
	typeRegistry[event.GetType()] = reflect.TypeOf(event).Elem()
}

// GetTypeRegistry returns the type registry for testing
func GetTypeRegistry() map[string]reflect.Type {
	return typeRegistry
}
