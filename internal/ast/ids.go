package ast

type (
	NodeID    uint32
	NameID    uint32
	PayloadID uint32
)

const (
	NoNodeID    NodeID    = 0
	NoNameID    NameID    = 0
	NoPayloadID PayloadID = 0
)

func (id NodeID) IsValid() bool    { return id != NoNodeID }
func (id NameID) IsValid() bool    { return id != NoNameID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
