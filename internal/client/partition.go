package client

// Partition splits listings into those owned by username and the rest,
// keeping the input order in both halves.
func Partition(listings []Listing, username string) (own, public []Listing) {
	own = []Listing{}
	public = []Listing{}
	for _, l := range listings {
		if l.Owner == username {
			own = append(own, l)
		} else {
			public = append(public, l)
		}
	}
	return own, public
}
