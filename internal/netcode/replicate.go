package netcode

import (
	"fmt"

	"github.com/yohamta/donburi"

	"github.com/snendev/cricket-pong/internal/components"
	"github.com/snendev/cricket-pong/pkg/api"
)

// EncodeEntity сериализует все реплицируемые компоненты сущности в порядке Kind.
// Сущность без NetID не реплицируется.
func EncodeEntity(entry *donburi.Entry) ([]api.ComponentPayload, error) {
	if !entry.HasComponent(components.NetID) {
		return nil, nil
	}
	id := components.NetID.Get(entry).ID
	instance, _ := components.InstanceOf(entry)

	var out []api.ComponentPayload
	for _, spec := range components.All() {
		if !spec.Has(entry) {
			continue
		}
		data, err := spec.Encode(entry)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		out = append(out, api.ComponentPayload{
			Entity:   id,
			Instance: instance,
			Kind:     uint8(spec.Kind),
			Data:     data,
		})
	}
	return out, nil
}
