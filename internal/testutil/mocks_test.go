package testutil_test

// Note: Mocks generated using testify/mock generally follow a standard pattern
// and encapsulate minimal logic themselves. Their primary purpose is to act as
// configurable test doubles for dependency injection.
//
// The correctness of mock usage is verified within the unit tests of the
// components that consume these mocks (e.g., the bucket selection hook tests
// injecting MockBucketClient).
