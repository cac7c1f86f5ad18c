package client

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// Presentation is what the submit button shows for a Status.
type Presentation struct {
	Label    string
	Style    string
	Disabled bool
}

var presentations = map[Status]Presentation{
	StatusIdle:    {Label: "Notify Me", Style: "bg-white text-black hover:bg-opacity-90"},
	StatusLoading: {Label: "Sending...", Style: "bg-gray-400 cursor-not-allowed", Disabled: true},
	StatusSuccess: {Label: "Subscribed!", Style: "bg-green-500 text-white"},
	StatusError:   {Label: "Failed!", Style: "bg-red-500 text-white"},
}

// Presentation is total: values outside the enumeration render as idle.
func (s Status) Presentation() Presentation {
	if p, ok := presentations[s]; ok {
		return p
	}
	return presentations[StatusIdle]
}

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}
