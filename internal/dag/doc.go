// Package dag is a small directed acyclic graph. The build pipeline uses it
// to validate its stage list before anything runs (every stage is a node,
// every "needs" relation an edge from the providing stage to the consuming
// one), and the HCL parameter loader uses it to evaluate attributes that
// refer to each other in dependency order.
package dag
