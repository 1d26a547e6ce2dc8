package database

// Opérateurs MongoDB (évite les littéraux dupliqués)
const (
	BSONMatch = "$match"
	BSONGroup = "$group"
	BSONSum   = "$sum"
	BSONCond  = "$cond"
	BSONSet   = "$set"
	BSONPush  = "$push"
	BSONPull  = "$pull"
	BSONIn    = "$in"
	BSONLt    = "$lt"
	BSONNe    = "$ne"
)
