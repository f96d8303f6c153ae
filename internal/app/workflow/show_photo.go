package workflow

// ShowPhoto displays the last photo for a few seconds.
type ShowPhoto struct {
	*Base
}

// NewShowPhoto creates the show-captured-photo state.
func NewShowPhoto(link Link) *ShowPhoto {
	s := &ShowPhoto{}
	s.Base = NewBase(link, func() error { return s.SwitchNext() })
	return s
}

func (s *ShowPhoto) OnTick() error {
	c := s.c
	c.drawFull(c.session.LastPhotoResized())
	c.drawInfo(c.T("last_photo", nil))
	return nil
}
