package provider

// PendingNotifications facturas aprobadas que el sandbox aún conserva.
func PendingNotifications(s *Sandbox) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.issued)
}
