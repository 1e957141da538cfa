package stated

// MethodDescriptor describes one dispatchable method of a registered state.
type MethodDescriptor struct {
	State       string `json:"state"`
	StatedClass string `json:"stated_class"`
	Method      string `json:"method"`
	Visibility  string `json:"visibility,omitempty"`
	Active      bool   `json:"active"`
	PrivateMode bool   `json:"private_mode"`
}

// Describe lists the methods of every registered state, in registration
// order and then by method name.
func (p *Proxy) Describe() []MethodDescriptor {
	descriptors := []MethodDescriptor{}
	for _, name := range p.order {
		state := p.states[name]
		inspector, _ := state.(MethodInspector)
		for _, method := range state.ListMethods() {
			descriptor := MethodDescriptor{
				State:       name,
				StatedClass: state.StatedClass(),
				Method:      method,
				Active:      p.InState(name),
				PrivateMode: state.PrivateMode(),
			}
			if inspector != nil {
				if def, ok := inspector.Lookup(method); ok {
					descriptor.Visibility = def.Visibility.String()
				}
			}
			descriptors = append(descriptors, descriptor)
		}
	}
	return descriptors
}
