package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	TableID         string `json:"table_id"`
	Seed            int64  `json:"seed"`
	GameDigest      string `json:"game_digest"`
	Seat            int    `json:"seat"`
}

// ACT (client -> server). Fields beyond Kind are read according to Kind:
//
//	BUILD       choice, street, plot
//	FENCE       street, index
//	INVEST      estate
//	BIS         street, plot
//	ROUNDABOUT  street, plot
//	SKIP/REFUSE none
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq,omitempty"`
	Kind            string `json:"kind"`

	Choice int `json:"choice,omitempty"`
	Street int `json:"street,omitempty"`
	Plot   int `json:"plot,omitempty"`
	Index  int `json:"index,omitempty"`
	Estate int `json:"estate,omitempty"`
}

// RESULT (server -> client): outcome of one ACT.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          uint64 `json:"ack_for,omitempty"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	House           string `json:"house,omitempty"`
	Round           int    `json:"round"`
}

// STATE (server -> client): full table view after every accepted act.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	TableID         string `json:"table_id"`
	Round           int    `json:"round"`
	DeckPass        int    `json:"deck_pass"`
	Started         bool   `json:"started"`
	GameOver        bool   `json:"game_over"`
	Digest          string `json:"digest"`

	Pairs     []PairObs     `json:"pairs"`
	Plans     [][2]int      `json:"plans"`
	Players   []PlayerObs   `json:"players"`
	Standings []StandingObs `json:"standings,omitempty"`
}

type CardObs struct {
	ID     int    `json:"id"`
	Number int    `json:"number"`
	Action string `json:"action"`
}

type PairObs struct {
	Number CardObs `json:"number"`
	Action CardObs `json:"action"`
}

type PlayerObs struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Phase   string      `json:"phase"`
	Pending string      `json:"pending,omitempty"`
	Left    bool        `json:"left,omitempty"`
	Streets []StreetObs `json:"streets"`

	Biss           int         `json:"biss"`
	PermitRefusals int         `json:"permit_refusals"`
	Pools          int         `json:"pools"`
	Roundabouts    int         `json:"roundabouts"`
	TempAgencies   int         `json:"temp_agencies"`
	Investments    map[int]int `json:"investments"`
}

type StreetObs struct {
	Plots  []string `json:"plots"`
	Fences []bool   `json:"fences"`
	Parks  int      `json:"parks"`
	Render string   `json:"render"`
}

type StandingObs struct {
	PlayerID  string         `json:"player_id"`
	Name      string         `json:"name"`
	Score     int            `json:"score"`
	Breakdown map[string]int `json:"breakdown"`
}
